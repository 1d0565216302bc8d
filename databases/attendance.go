package databases

// go generate: mockery --name AttendanceDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tlatelolco/crime-incidence-api/models"
)

const attendanceName = "attendances"

// AttendanceDatabase contains the methods to use with the attendance database
type AttendanceDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Attendance, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Attendance, error)
	InsertOne(ctx context.Context, attendance models.Attendance, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type attendanceDatabase struct {
	db DatabaseHelper
}

// NewAttendanceDatabase initializes a new instance of attendance database with the provided db connection
func NewAttendanceDatabase(db DatabaseHelper) AttendanceDatabase {
	return &attendanceDatabase{
		db: db,
	}
}

func (c *attendanceDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Attendance, error) {
	attendance := &models.Attendance{}
	err := c.db.Collection(attendanceName).FindOne(ctx, filter, opts...).Decode(&attendance)
	if err != nil {
		return nil, err
	}
	return attendance, nil
}

func (c *attendanceDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Attendance, error) {
	var attendances []models.Attendance
	cr, err := c.db.Collection(attendanceName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&attendances)
	if err != nil {
		return nil, err
	}
	return attendances, nil
}

func (c *attendanceDatabase) InsertOne(ctx context.Context, attendance models.Attendance, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(attendanceName).InsertOne(ctx, attendance, opts...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *attendanceDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	err := c.db.Collection(attendanceName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *attendanceDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	err := c.db.Collection(attendanceName).DeleteOne(ctx, filter, opts...)
	if err != nil {
		return err
	}
	return nil
}
