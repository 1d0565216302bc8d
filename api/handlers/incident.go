package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/tlatelolco/crime-incidence-api/api"
	"github.com/tlatelolco/crime-incidence-api/config"
	"github.com/tlatelolco/crime-incidence-api/databases"
	"github.com/tlatelolco/crime-incidence-api/geo"
	"github.com/tlatelolco/crime-incidence-api/geocoding"
	"github.com/tlatelolco/crime-incidence-api/incidents"
	"github.com/tlatelolco/crime-incidence-api/models"
)

// Stored instants carry the same fixed shift the intake applied, so list
// responses shift them once more to render the intended local day.
const responseShift = 6 * time.Hour

// Incident exported for testing purposes
type Incident struct {
	DB       databases.IncidentDatabase
	Engine   *incidents.Engine
	Geocoder *geocoding.Resolver
}

// PaginatedResponse holds the structure for paginated responses
type PaginatedResponse struct {
	Page       int               `json:"page"`
	TotalCount int64             `json:"totalCount"`
	Data       []models.Incident `json:"data"`
}

type incidentUpdateRequest struct {
	models.IncidentRequest
	Status string `json:"status"`
}

func writeValidationError(w http.ResponseWriter, vErr *incidents.ValidationError) {
	zap.S().Warnw("incident rejected", "field", vErr.Field, "message", vErr.Message, "index", vErr.Index)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": vErr})
}

// CreateIncidentHandler validates, classifies, geocodes and stores a
// citizen submission. A JSON array body is treated as a bulk submission.
func (i Incident) CreateIncidentHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		config.ErrorStatus("failed to read request body", http.StatusBadRequest, w, err)
		return
	}

	if isJSONArray(body) {
		i.createBulk(w, r, body)
		return
	}

	var raw models.IncidentRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	incident, vErr := i.Engine.ValidateAndEnrich(raw)
	if vErr != nil {
		writeValidationError(w, vErr)
		return
	}

	// Geocoding is best-effort; missing coordinates degrade to the
	// neighborhood centroid rather than failing the report.
	if incidents.NeedsGeocoding(raw) {
		coords := i.Geocoder.Resolve(r.Context(), raw.Location.Street, raw.Location.Number)
		incident.Location.Coordinates = &coords
	}

	incident.ID = primitive.NewObjectID()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	_, err = i.DB.InsertOne(ctx, *incident)
	if err != nil {
		config.ErrorStatus("failed to create incident", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(incident)
}

// CreateIncidentsBulkHandler stores a batch of submissions
// all-or-nothing: nothing is persisted unless every element validates.
func (i Incident) CreateIncidentsBulkHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		config.ErrorStatus("failed to read request body", http.StatusBadRequest, w, err)
		return
	}
	i.createBulk(w, r, body)
}

func (i Incident) createBulk(w http.ResponseWriter, r *http.Request, body []byte) {
	var raws []models.IncidentRequest
	if err := json.Unmarshal(body, &raws); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if len(raws) == 0 {
		config.ErrorStatus("empty incident batch", http.StatusBadRequest, w, errors.New("no incidents provided"))
		return
	}

	batch, vErr := i.Engine.ValidateAndEnrichBulk(raws)
	if vErr != nil {
		writeValidationError(w, vErr)
		return
	}

	for idx := range batch {
		if incidents.NeedsGeocoding(raws[idx]) {
			coords := i.Geocoder.Resolve(r.Context(), raws[idx].Location.Street, raws[idx].Location.Number)
			batch[idx].Location.Coordinates = &coords
		}
		batch[idx].ID = primitive.NewObjectID()
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	res, err := i.DB.InsertMany(ctx, batch)
	if err != nil {
		config.ErrorStatus("failed to create incidents", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"message":  "incidents created successfully",
		"inserted": len(res.Decode()),
	})
}

// FetchIncidentsHandler returns the stored incidents, newest first
func (i Incident) FetchIncidentsHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf("limit not set, using default of %v, err: %v", 10, err)
		Limit = 10
	}
	limit64 := int64(Limit)
	Page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		Page = 0
	}
	skip64 := int64(Page * Limit)

	filter := bson.M{}
	if t := r.URL.Query().Get("type"); t != "" {
		filter["type"] = t
	}
	if s := r.URL.Query().Get("status"); s != "" {
		filter["status"] = s
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	totalCount, err := i.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to get total count of incidents", http.StatusInternalServerError, w, err)
		return
	}

	sort := bson.D{{Key: "dateTime", Value: -1}}
	dbResp, err := i.DB.Find(ctx, filter, &options.FindOptions{Limit: &limit64, Skip: &skip64, Sort: sort})
	if err != nil {
		config.ErrorStatus("failed to get incidents", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Incident{}
	}
	for idx := range dbResp {
		shiftForResponse(&dbResp[idx])
	}

	paginatedResponse := PaginatedResponse{
		Page:       Page,
		TotalCount: totalCount,
		Data:       dbResp,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(paginatedResponse)
}

type streetIncidentsResponse struct {
	Street      string            `json:"street"`
	Count       int               `json:"count"`
	ImpactLevel string            `json:"impactLevel"`
	Color       string            `json:"color"`
	Incidents   []models.Incident `json:"incidents"`
}

// IncidentsByStreetHandler returns the incidents reported on one street
// together with its derived risk level
func (i Incident) IncidentsByStreetHandler(w http.ResponseWriter, r *http.Request) {
	street := mux.Vars(r)["street"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := bson.D{{Key: "dateTime", Value: -1}}
	dbResp, err := i.DB.Find(ctx, bson.M{"location.street": street}, &options.FindOptions{Sort: sort})
	if err != nil {
		config.ErrorStatus("failed to get incidents for street", http.StatusInternalServerError, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Incident{}
	}
	for idx := range dbResp {
		shiftForResponse(&dbResp[idx])
	}

	level := geo.CalculateImpactLevel(len(dbResp))
	resp := streetIncidentsResponse{
		Street:      street,
		Count:       len(dbResp),
		ImpactLevel: level,
		Color:       geo.ImpactColor(level),
		Incidents:   dbResp,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// StatisticsStreetEntry is one street occurrence inside a per-type group
type StatisticsStreetEntry struct {
	Street   string `json:"street" bson:"street"`
	Severity string `json:"severity,omitempty" bson:"severity,omitempty"`
}

// StatisticsGroup is the per-type aggregation bucket
type StatisticsGroup struct {
	Type     string                  `json:"type" bson:"_id"`
	Count    int                     `json:"count" bson:"count"`
	ByStreet []StatisticsStreetEntry `json:"byStreet" bson:"byStreet"`
}

// StatisticsResponse is the incident statistics payload
type StatisticsResponse struct {
	Total      int               `json:"total"`
	HighImpact int               `json:"highImpact"`
	LowImpact  int               `json:"lowImpact"`
	ByType     []StatisticsGroup `json:"byType"`
}

// IncidentStatisticsHandler aggregates stored incidents by type
func (i Incident) IncidentStatisticsHandler(w http.ResponseWriter, r *http.Request) {
	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":   "$type",
			"count": bson.M{"$sum": 1},
			"byStreet": bson.M{"$push": bson.M{
				"street":   "$location.street",
				"severity": "$crimeImpact",
			}},
		}},
		{"$sort": bson.M{"count": -1}},
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var groups []StatisticsGroup
	if err := i.DB.Aggregate(ctx, pipeline, &groups); err != nil {
		config.ErrorStatus("failed to aggregate incident statistics", http.StatusInternalServerError, w, err)
		return
	}

	resp := StatisticsResponse{ByType: groups}
	if resp.ByType == nil {
		resp.ByType = []StatisticsGroup{}
	}
	for _, g := range groups {
		resp.Total += g.Count
		for _, s := range g.ByStreet {
			switch s.Severity {
			case models.CrimeImpactHigh:
				resp.HighImpact++
			case models.CrimeImpactLow:
				resp.LowImpact++
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// UpdateIncidentHandler applies a partial update to an existing incident,
// re-deriving crimeImpact whenever crimeType changes
func (i Incident) UpdateIncidentHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	iID, err := primitive.ObjectIDFromHex(incidentID)
	if err != nil {
		config.ErrorStatus("invalid incident ID", http.StatusBadRequest, w, err)
		return
	}

	var raw incidentUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"_id": iID}
	existing, err := i.DB.FindOne(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to find incident", http.StatusNotFound, w, err)
		return
	}

	impact, vErr := incidents.ValidatePartial(raw.IncidentRequest)
	if vErr != nil {
		writeValidationError(w, vErr)
		return
	}
	if raw.Status != "" && !models.IsValidIncidentStatus(raw.Status) {
		writeValidationError(w, &incidents.ValidationError{
			Field:   "status",
			Message: "El estado especificado no es válido",
			Index:   -1,
		})
		return
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if raw.Type != "" {
		set["type"] = raw.Type
	}
	if raw.CrimeType != "" {
		set["crimeType"] = raw.CrimeType
		set["crimeImpact"] = impact
		if raw.AdditionalDetails.OtherTypeDescription != "" {
			set["additionalDetails.otherTypeDescription"] = raw.AdditionalDetails.OtherTypeDescription
		}
	}
	if raw.Description != "" {
		set["description"] = raw.Description
	}
	if raw.Status != "" {
		set["status"] = raw.Status
	}
	if raw.ReportedBy != "" {
		set["reportedBy"] = raw.ReportedBy
	}
	if raw.Location.Street != "" {
		set["location.street"] = raw.Location.Street
	}
	if raw.Date != "" {
		date, dt, vErr := incidents.ParseDateTime(raw.Date, raw.Time, existing.Time)
		if vErr != nil {
			writeValidationError(w, vErr)
			return
		}
		set["date"] = date
		set["dateTime"] = dt
		if raw.Time != "" {
			set["time"] = raw.Time
		}
	}

	if err := i.DB.UpdateOne(ctx, filter, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update incident", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "incident updated successfully"}`))
}

// DeleteIncidentHandler deletes an existing incident
func (i Incident) DeleteIncidentHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	iID, err := primitive.ObjectIDFromHex(incidentID)
	if err != nil {
		config.ErrorStatus("invalid incident ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"_id": iID}
	if _, err := i.DB.FindOne(ctx, filter); err != nil {
		config.ErrorStatus("failed to find incident", http.StatusNotFound, w, err)
		return
	}

	if err := i.DB.DeleteOne(ctx, filter); err != nil {
		config.ErrorStatus("failed to delete incident", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "incident deleted successfully"}`))
}

func shiftForResponse(incident *models.Incident) {
	incident.Date = incident.Date.Add(responseShift)
	incident.DateTime = incident.DateTime.Add(responseShift)
}

func isJSONArray(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
