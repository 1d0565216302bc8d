package databases

// go generate: mockery --name IncidentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tlatelolco/crime-incidence-api/models"
)

const incidentName = "incidents"

// IncidentDatabase contains the methods to use with the incident database
type IncidentDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Incident, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Incident, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, incident models.Incident, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	InsertMany(ctx context.Context, incidents []models.Incident, opts ...*options.InsertManyOptions) (InsertManyResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
	Aggregate(ctx context.Context, pipeline interface{}, results interface{}, opts ...*options.AggregateOptions) error
}

type incidentDatabase struct {
	db DatabaseHelper
}

// NewIncidentDatabase initializes a new instance of incident database with the provided db connection
func NewIncidentDatabase(db DatabaseHelper) IncidentDatabase {
	return &incidentDatabase{
		db: db,
	}
}

func (c *incidentDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Incident, error) {
	incident := &models.Incident{}
	err := c.db.Collection(incidentName).FindOne(ctx, filter, opts...).Decode(&incident)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

func (c *incidentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Incident, error) {
	var incidents []models.Incident
	cr, err := c.db.Collection(incidentName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&incidents)
	if err != nil {
		return nil, err
	}
	return incidents, nil
}

func (c *incidentDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	count, err := c.db.Collection(incidentName).CountDocuments(ctx, filter, opts...)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (c *incidentDatabase) InsertOne(ctx context.Context, incident models.Incident, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(incidentName).InsertOne(ctx, incident, opts...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *incidentDatabase) InsertMany(ctx context.Context, incidents []models.Incident, opts ...*options.InsertManyOptions) (InsertManyResultHelper, error) {
	docs := make([]interface{}, len(incidents))
	for i := range incidents {
		docs[i] = incidents[i]
	}
	res, err := c.db.Collection(incidentName).InsertMany(ctx, docs, opts...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *incidentDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	err := c.db.Collection(incidentName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *incidentDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	err := c.db.Collection(incidentName).DeleteOne(ctx, filter, opts...)
	if err != nil {
		return err
	}
	return nil
}

func (c *incidentDatabase) Aggregate(ctx context.Context, pipeline interface{}, results interface{}, opts ...*options.AggregateOptions) error {
	cr, err := c.db.Collection(incidentName).Aggregate(ctx, pipeline, opts...)
	if err != nil {
		return err
	}
	return cr.Decode(results)
}
