package databases

// go generate: mockery --name SpecialInstructionDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tlatelolco/crime-incidence-api/models"
)

const specialInstructionName = "specialinstructions"

// SpecialInstructionDatabase contains the methods to use with the special instruction database
type SpecialInstructionDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.SpecialInstruction, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.SpecialInstruction, error)
	InsertOne(ctx context.Context, instruction models.SpecialInstruction, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type specialInstructionDatabase struct {
	db DatabaseHelper
}

// NewSpecialInstructionDatabase initializes a new instance of special instruction database with the provided db connection
func NewSpecialInstructionDatabase(db DatabaseHelper) SpecialInstructionDatabase {
	return &specialInstructionDatabase{
		db: db,
	}
}

func (c *specialInstructionDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.SpecialInstruction, error) {
	instruction := &models.SpecialInstruction{}
	err := c.db.Collection(specialInstructionName).FindOne(ctx, filter, opts...).Decode(&instruction)
	if err != nil {
		return nil, err
	}
	return instruction, nil
}

func (c *specialInstructionDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.SpecialInstruction, error) {
	var instructions []models.SpecialInstruction
	cr, err := c.db.Collection(specialInstructionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&instructions)
	if err != nil {
		return nil, err
	}
	return instructions, nil
}

func (c *specialInstructionDatabase) InsertOne(ctx context.Context, instruction models.SpecialInstruction, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(specialInstructionName).InsertOne(ctx, instruction, opts...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *specialInstructionDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	err := c.db.Collection(specialInstructionName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *specialInstructionDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	err := c.db.Collection(specialInstructionName).DeleteOne(ctx, filter, opts...)
	if err != nil {
		return err
	}
	return nil
}
