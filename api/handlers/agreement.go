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

// Agreement exported for testing purposes
type Agreement struct {
	DB databases.AgreementDatabase
}

// CreateAgreementHandler creates a new council agreement
func (a Agreement) CreateAgreementHandler(w http.ResponseWriter, r *http.Request) {
	var agreement models.Agreement
	if err := json.NewDecoder(r.Body).Decode(&agreement); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if agreement.Title == "" {
		config.ErrorStatus("agreement title is required", http.StatusBadRequest, w, errors.New("missing title"))
		return
	}
	if agreement.Status == "" {
		agreement.Status = "pendiente"
	}
	if !models.IsValidAgreementStatus(agreement.Status) {
		config.ErrorStatus("invalid agreement status", http.StatusBadRequest, w, errors.New("unknown status"))
		return
	}

	now := time.Now().UTC()
	agreement.ID = primitive.NewObjectID()
	agreement.CreatedAt = now
	agreement.UpdatedAt = now
	if claims := api.UserFromContext(r.Context()); claims != nil {
		agreement.CreatedBy = claims.Username
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := a.DB.InsertOne(ctx, agreement); err != nil {
		config.ErrorStatus("failed to create agreement", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(agreement)
}

// FetchAgreementsHandler returns all agreements, newest first. An
// optional status query parameter narrows the list.
func (a Agreement) FetchAgreementsHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if s := r.URL.Query().Get("status"); s != "" {
		filter["status"] = s
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := bson.D{{Key: "date", Value: -1}}
	dbResp, err := a.DB.Find(ctx, filter, &options.FindOptions{Sort: sort})
	if err != nil {
		config.ErrorStatus("failed to get agreements", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Agreement{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dbResp)
}

// GetAgreementByIDHandler retrieves an agreement by its ID
func (a Agreement) GetAgreementByIDHandler(w http.ResponseWriter, r *http.Request) {
	agreementID := mux.Vars(r)["agreement_id"]

	aID, err := primitive.ObjectIDFromHex(agreementID)
	if err != nil {
		config.ErrorStatus("invalid agreement ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	agreement, err := a.DB.FindOne(ctx, bson.M{"_id": aID})
	if err != nil {
		config.ErrorStatus("failed to find agreement", http.StatusNotFound, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(agreement)
}

// UpdateAgreementHandler updates the details of an existing agreement
func (a Agreement) UpdateAgreementHandler(w http.ResponseWriter, r *http.Request) {
	agreementID := mux.Vars(r)["agreement_id"]

	aID, err := primitive.ObjectIDFromHex(agreementID)
	if err != nil {
		config.ErrorStatus("invalid agreement ID", http.StatusBadRequest, w, err)
		return
	}

	var updated models.Agreement
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if updated.Status != "" && !models.IsValidAgreementStatus(updated.Status) {
		config.ErrorStatus("invalid agreement status", http.StatusBadRequest, w, errors.New("unknown status"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"_id": aID}
	if _, err := a.DB.FindOne(ctx, filter); err != nil {
		config.ErrorStatus("failed to find agreement", http.StatusNotFound, w, err)
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
	if updated.AssignedTo != nil {
		set["assignedTo"] = updated.AssignedTo
	}
	if updated.DueDate != nil {
		set["dueDate"] = updated.DueDate
	}
	if updated.Priority != "" {
		set["priority"] = updated.Priority
	}
	if updated.Attachments != nil {
		set["attachments"] = updated.Attachments
	}

	if err := a.DB.UpdateOne(ctx, filter, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update agreement", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "agreement updated successfully"}`))
}

// AddAgreementCommentHandler appends a comment to an agreement
func (a Agreement) AddAgreementCommentHandler(w http.ResponseWriter, r *http.Request) {
	agreementID := mux.Vars(r)["agreement_id"]

	aID, err := primitive.ObjectIDFromHex(agreementID)
	if err != nil {
		config.ErrorStatus("invalid agreement ID", http.StatusBadRequest, w, err)
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

	filter := bson.M{"_id": aID}
	if _, err := a.DB.FindOne(ctx, filter); err != nil {
		config.ErrorStatus("failed to find agreement", http.StatusNotFound, w, err)
		return
	}

	update := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": comment.Date},
	}
	if err := a.DB.UpdateOne(ctx, filter, update); err != nil {
		config.ErrorStatus("failed to add comment", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(comment)
}

// DeleteAgreementHandler deletes an existing agreement
func (a Agreement) DeleteAgreementHandler(w http.ResponseWriter, r *http.Request) {
	agreementID := mux.Vars(r)["agreement_id"]

	aID, err := primitive.ObjectIDFromHex(agreementID)
	if err != nil {
		config.ErrorStatus("invalid agreement ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.DB.DeleteOne(ctx, bson.M{"_id": aID}); err != nil {
		config.ErrorStatus("failed to delete agreement", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "agreement deleted successfully"}`))
}
