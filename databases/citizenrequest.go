package databases

// go generate: mockery --name CitizenRequestDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tlatelolco/crime-incidence-api/models"
)

const citizenRequestName = "citizenrequests"

// CitizenRequestDatabase contains the methods to use with the citizen request database
type CitizenRequestDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.CitizenRequest, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.CitizenRequest, error)
	InsertOne(ctx context.Context, request models.CitizenRequest, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type citizenRequestDatabase struct {
	db DatabaseHelper
}

// NewCitizenRequestDatabase initializes a new instance of citizen request database with the provided db connection
func NewCitizenRequestDatabase(db DatabaseHelper) CitizenRequestDatabase {
	return &citizenRequestDatabase{
		db: db,
	}
}

func (c *citizenRequestDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.CitizenRequest, error) {
	request := &models.CitizenRequest{}
	err := c.db.Collection(citizenRequestName).FindOne(ctx, filter, opts...).Decode(&request)
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (c *citizenRequestDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CitizenRequest, error) {
	var requests []models.CitizenRequest
	cr, err := c.db.Collection(citizenRequestName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&requests)
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (c *citizenRequestDatabase) InsertOne(ctx context.Context, request models.CitizenRequest, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(citizenRequestName).InsertOne(ctx, request, opts...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *citizenRequestDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	err := c.db.Collection(citizenRequestName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *citizenRequestDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	err := c.db.Collection(citizenRequestName).DeleteOne(ctx, filter, opts...)
	if err != nil {
		return err
	}
	return nil
}
