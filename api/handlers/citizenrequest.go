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

// CitizenRequest exported for testing purposes
type CitizenRequest struct {
	DB databases.CitizenRequestDatabase
}

// CreateCitizenRequestHandler files a new citizen request
func (c CitizenRequest) CreateCitizenRequestHandler(w http.ResponseWriter, r *http.Request) {
	var request models.CitizenRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if request.Title == "" {
		config.ErrorStatus("request title is required", http.StatusBadRequest, w, errors.New("missing title"))
		return
	}
	if request.Requester.Name == "" {
		config.ErrorStatus("requester name is required", http.StatusBadRequest, w, errors.New("missing requester"))
		return
	}
	if request.Status == "" {
		request.Status = models.CitizenRequestStatusPending
	}
	if !models.IsValidCitizenRequestStatus(request.Status) {
		config.ErrorStatus("invalid request status", http.StatusBadRequest, w, errors.New("unknown status"))
		return
	}

	now := time.Now().UTC()
	request.ID = primitive.NewObjectID()
	request.CreatedAt = now
	request.UpdatedAt = now
	if request.Location.Coordinates.Type == "" {
		request.Location.Coordinates.Type = "Point"
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := c.DB.InsertOne(ctx, request); err != nil {
		config.ErrorStatus("failed to create citizen request", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(request)
}

// FetchCitizenRequestsHandler returns all citizen requests, newest first
func (c CitizenRequest) FetchCitizenRequestsHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if s := r.URL.Query().Get("status"); s != "" {
		filter["status"] = s
	}
	if street := r.URL.Query().Get("street"); street != "" {
		filter["location.street"] = street
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := bson.D{{Key: "createdAt", Value: -1}}
	dbResp, err := c.DB.Find(ctx, filter, &options.FindOptions{Sort: sort})
	if err != nil {
		config.ErrorStatus("failed to get citizen requests", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.CitizenRequest{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dbResp)
}

// GetCitizenRequestByIDHandler retrieves a citizen request by its ID
func (c CitizenRequest) GetCitizenRequestByIDHandler(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["request_id"]

	rID, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		config.ErrorStatus("invalid citizen request ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	request, err := c.DB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to find citizen request", http.StatusNotFound, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(request)
}

// UpdateCitizenRequestHandler updates an existing citizen request
func (c CitizenRequest) UpdateCitizenRequestHandler(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["request_id"]

	rID, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		config.ErrorStatus("invalid citizen request ID", http.StatusBadRequest, w, err)
		return
	}

	var updated models.CitizenRequest
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if updated.Status != "" && !models.IsValidCitizenRequestStatus(updated.Status) {
		config.ErrorStatus("invalid request status", http.StatusBadRequest, w, errors.New("unknown status"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"_id": rID}
	if _, err := c.DB.FindOne(ctx, filter); err != nil {
		config.ErrorStatus("failed to find citizen request", http.StatusNotFound, w, err)
		return
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if updated.Title != "" {
		set["title"] = updated.Title
	}
	if updated.Description != "" {
		set["description"] = updated.Description
	}
	if updated.Status != "" {
		set["status"] = updated.Status
	}
	if updated.Location.Street != "" {
		set["location.street"] = updated.Location.Street
	}

	if err := c.DB.UpdateOne(ctx, filter, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update citizen request", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "citizen request updated successfully"}`))
}

// AddCitizenRequestCommentHandler appends a comment to a citizen request
func (c CitizenRequest) AddCitizenRequestCommentHandler(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["request_id"]

	rID, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		config.ErrorStatus("invalid citizen request ID", http.StatusBadRequest, w, err)
		return
	}

	var comment models.Comment
	if err := json.NewDecoder(r.Body).Decode(&comment); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if comment.Text == "" {
		config.ErrorStatus("comment text is required", http.StatusBadRequest, w, errors.New("missing text"))
		return
	}
	comment.Date = time.Now().UTC()
	if claims := api.UserFromContext(r.Context()); claims != nil && comment.Author == "" {
		comment.Author = claims.Name
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"_id": rID}
	if _, err := c.DB.FindOne(ctx, filter); err != nil {
		config.ErrorStatus("failed to find citizen request", http.StatusNotFound, w, err)
		return
	}

	update := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": comment.Date},
	}
	if err := c.DB.UpdateOne(ctx, filter, update); err != nil {
		config.ErrorStatus("failed to add comment", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(comment)
}

// DeleteCitizenRequestHandler deletes an existing citizen request
func (c CitizenRequest) DeleteCitizenRequestHandler(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["request_id"]

	rID, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		config.ErrorStatus("invalid citizen request ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := c.DB.DeleteOne(ctx, bson.M{"_id": rID}); err != nil {
		config.ErrorStatus("failed to delete citizen request", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "citizen request deleted successfully"}`))
}
