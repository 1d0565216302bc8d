package databases

// go generate: mockery --name AgreementDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tlatelolco/crime-incidence-api/models"
)

const agreementName = "agreements"

// AgreementDatabase contains the methods to use with the agreement database
type AgreementDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Agreement, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Agreement, error)
	InsertOne(ctx context.Context, agreement models.Agreement, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type agreementDatabase struct {
	db DatabaseHelper
}

// NewAgreementDatabase initializes a new instance of agreement database with the provided db connection
func NewAgreementDatabase(db DatabaseHelper) AgreementDatabase {
	return &agreementDatabase{
		db: db,
	}
}

func (c *agreementDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Agreement, error) {
	agreement := &models.Agreement{}
	err := c.db.Collection(agreementName).FindOne(ctx, filter, opts...).Decode(&agreement)
	if err != nil {
		return nil, err
	}
	return agreement, nil
}

func (c *agreementDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Agreement, error) {
	var agreements []models.Agreement
	cr, err := c.db.Collection(agreementName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&agreements)
	if err != nil {
		return nil, err
	}
	return agreements, nil
}

func (c *agreementDatabase) InsertOne(ctx context.Context, agreement models.Agreement, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(agreementName).InsertOne(ctx, agreement, opts...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *agreementDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	err := c.db.Collection(agreementName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *agreementDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	err := c.db.Collection(agreementName).DeleteOne(ctx, filter, opts...)
	if err != nil {
		return err
	}
	return nil
}
