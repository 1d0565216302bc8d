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

// SpecialInstruction exported for testing purposes
type SpecialInstruction struct {
	DB databases.SpecialInstructionDatabase
}

// CreateSpecialInstructionHandler creates a new special instruction
func (s SpecialInstruction) CreateSpecialInstructionHandler(w http.ResponseWriter, r *http.Request) {
	var instruction models.SpecialInstruction
	if err := json.NewDecoder(r.Body).Decode(&instruction); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if instruction.Title == "" {
		config.ErrorStatus("instruction title is required", http.StatusBadRequest, w, errors.New("missing title"))
		return
	}
	if instruction.Status == "" {
		instruction.Status = "designado"
	}
	if !models.IsValidSpecialInstructionStatus(instruction.Status) {
		config.ErrorStatus("invalid instruction status", http.StatusBadRequest, w, errors.New("unknown status"))
		return
	}

	now := time.Now().UTC()
	instruction.ID = primitive.NewObjectID()
	instruction.CreatedAt = now
	instruction.UpdatedAt = now

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := s.DB.InsertOne(ctx, instruction); err != nil {
		config.ErrorStatus("failed to create instruction", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(instruction)
}

// FetchSpecialInstructionsHandler returns all instructions, newest first
func (s SpecialInstruction) FetchSpecialInstructionsHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := bson.D{{Key: "createdAt", Value: -1}}
	dbResp, err := s.DB.Find(ctx, filter, &options.FindOptions{Sort: sort})
	if err != nil {
		config.ErrorStatus("failed to get instructions", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.SpecialInstruction{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dbResp)
}

// UpdateSpecialInstructionHandler updates an existing instruction
func (s SpecialInstruction) UpdateSpecialInstructionHandler(w http.ResponseWriter, r *http.Request) {
	instructionID := mux.Vars(r)["instruction_id"]

	sID, err := primitive.ObjectIDFromHex(instructionID)
	if err != nil {
		config.ErrorStatus("invalid instruction ID", http.StatusBadRequest, w, err)
		return
	}

	var updated models.SpecialInstruction
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if updated.Status != "" && !models.IsValidSpecialInstructionStatus(updated.Status) {
		config.ErrorStatus("invalid instruction status", http.StatusBadRequest, w, errors.New("unknown status"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"_id": sID}
	if _, err := s.DB.FindOne(ctx, filter); err != nil {
		config.ErrorStatus("failed to find instruction", http.StatusNotFound, w, err)
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

	if err := s.DB.UpdateOne(ctx, filter, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update instruction", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "instruction updated successfully"}`))
}

// AddSpecialInstructionCommentHandler appends a comment to an instruction
func (s SpecialInstruction) AddSpecialInstructionCommentHandler(w http.ResponseWriter, r *http.Request) {
	instructionID := mux.Vars(r)["instruction_id"]

	sID, err := primitive.ObjectIDFromHex(instructionID)
	if err != nil {
		config.ErrorStatus("invalid instruction ID", http.StatusBadRequest, w, err)
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

	filter := bson.M{"_id": sID}
	if _, err := s.DB.FindOne(ctx, filter); err != nil {
		config.ErrorStatus("failed to find instruction", http.StatusNotFound, w, err)
		return
	}

	update := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": comment.Date},
	}
	if err := s.DB.UpdateOne(ctx, filter, update); err != nil {
		config.ErrorStatus("failed to add comment", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(comment)
}

// DeleteSpecialInstructionHandler deletes an existing instruction
func (s SpecialInstruction) DeleteSpecialInstructionHandler(w http.ResponseWriter, r *http.Request) {
	instructionID := mux.Vars(r)["instruction_id"]

	sID, err := primitive.ObjectIDFromHex(instructionID)
	if err != nil {
		config.ErrorStatus("invalid instruction ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := s.DB.DeleteOne(ctx, bson.M{"_id": sID}); err != nil {
		config.ErrorStatus("failed to delete instruction", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "instruction deleted successfully"}`))
}
