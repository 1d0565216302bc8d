package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tlatelolco/crime-incidence-api/api"
	"github.com/tlatelolco/crime-incidence-api/config"
	"github.com/tlatelolco/crime-incidence-api/databases"
	"github.com/tlatelolco/crime-incidence-api/models"
)

// Attendance exported for testing purposes
type Attendance struct {
	DB databases.AttendanceDatabase
}

type attendanceRequest struct {
	Date         string                   `json:"date"`
	Participants []models.AttendanceEntry `json:"participants"`
}

// CreateAttendanceHandler records attendance for one council session.
// Sessions happen on Tuesdays; one document per date.
func (a Attendance) CreateAttendanceHandler(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		config.ErrorStatus("invalid session date", http.StatusBadRequest, w, err)
		return
	}
	if date.UTC().Weekday() != time.Tuesday {
		config.ErrorStatus("attendance can only be recorded for Tuesday sessions", http.StatusBadRequest, w,
			errors.New("session date is not a Tuesday"))
		return
	}
	for _, p := range req.Participants {
		if !models.IsValidAttendanceState(p.Attendance) {
			config.ErrorStatus("invalid attendance state", http.StatusBadRequest, w,
				errors.New("attendance must be titular, suplente or ausente"))
			return
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := a.DB.FindOne(ctx, bson.M{"date": date}); err == nil {
		config.ErrorStatus("attendance already recorded for this date", http.StatusConflict, w,
			errors.New("duplicate session date"))
		return
	}

	now := time.Now().UTC()
	attendance := models.Attendance{
		ID:           primitive.NewObjectID(),
		Date:         date,
		Participants: req.Participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if claims := api.UserFromContext(r.Context()); claims != nil {
		attendance.CreatedBy = claims.Username
	}

	if _, err := a.DB.InsertOne(ctx, attendance); err != nil {
		config.ErrorStatus("failed to create attendance", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(attendance)
}

// FetchAttendancesHandler returns all recorded sessions, newest first
func (a Attendance) FetchAttendancesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := bson.D{{Key: "date", Value: -1}}
	dbResp, err := a.DB.Find(ctx, bson.M{}, &options.FindOptions{Sort: sort})
	if err != nil {
		config.ErrorStatus("failed to get attendances", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Attendance{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dbResp)
}

// GetAttendanceByIDHandler retrieves one session's attendance
func (a Attendance) GetAttendanceByIDHandler(w http.ResponseWriter, r *http.Request) {
	attendanceID := mux.Vars(r)["attendance_id"]

	aID, err := primitive.ObjectIDFromHex(attendanceID)
	if err != nil {
		config.ErrorStatus("invalid attendance ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	attendance, err := a.DB.FindOne(ctx, bson.M{"_id": aID})
	if err != nil {
		config.ErrorStatus("failed to find attendance", http.StatusNotFound, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(attendance)
}

// UpdateAttendanceHandler replaces the participant list of a session
func (a Attendance) UpdateAttendanceHandler(w http.ResponseWriter, r *http.Request) {
	attendanceID := mux.Vars(r)["attendance_id"]

	aID, err := primitive.ObjectIDFromHex(attendanceID)
	if err != nil {
		config.ErrorStatus("invalid attendance ID", http.StatusBadRequest, w, err)
		return
	}

	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	for _, p := range req.Participants {
		if !models.IsValidAttendanceState(p.Attendance) {
			config.ErrorStatus("invalid attendance state", http.StatusBadRequest, w,
				errors.New("attendance must be titular, suplente or ausente"))
			return
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"_id": aID}
	if _, err := a.DB.FindOne(ctx, filter); err != nil {
		config.ErrorStatus("failed to find attendance", http.StatusNotFound, w, err)
		return
	}

	update := bson.M{"$set": bson.M{
		"participants": req.Participants,
		"updatedAt":    time.Now().UTC(),
	}}
	if err := a.DB.UpdateOne(ctx, filter, update); err != nil {
		config.ErrorStatus("failed to update attendance", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "attendance updated successfully"}`))
}

// DeleteAttendanceHandler deletes a session's attendance record
func (a Attendance) DeleteAttendanceHandler(w http.ResponseWriter, r *http.Request) {
	attendanceID := mux.Vars(r)["attendance_id"]

	aID, err := primitive.ObjectIDFromHex(attendanceID)
	if err != nil {
		config.ErrorStatus("invalid attendance ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.DB.DeleteOne(ctx, bson.M{"_id": aID}); err != nil {
		config.ErrorStatus("failed to delete attendance", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "attendance deleted successfully"}`))
}
