package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tlatelolco/crime-incidence-api/api/handlers"
	mocksdb "github.com/tlatelolco/crime-incidence-api/databases/mocks"
	"github.com/tlatelolco/crime-incidence-api/geocoding"
	"github.com/tlatelolco/crime-incidence-api/incidents"
	"github.com/tlatelolco/crime-incidence-api/models"
	"github.com/tlatelolco/crime-incidence-api/observability"
)

type lookupStub struct {
	coords  *models.Coordinates
	err     error
	queries []string
}

func (l *lookupStub) Search(ctx context.Context, query string) (*models.Coordinates, error) {
	l.queries = append(l.queries, query)
	return l.coords, l.err
}

func newTestEngine() *incidents.Engine {
	return incidents.NewEngine(clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)))
}

func newTestGeocoder(lookup geocoding.AddressLookup) *geocoding.Resolver {
	return geocoding.NewResolver(lookup, observability.NewMetricsForTesting())
}

func validIncidentBody() map[string]interface{} {
	return map[string]interface{}{
		"type":        "Crimen",
		"crimeType":   "Robo con violencia",
		"date":        "2024-05-20",
		"time":        "14:30",
		"description": "Asalto a transeúnte en la esquina",
		"reportedBy":  "Vecino anónimo",
		"location": map[string]interface{}{
			"street": "Av. Insurgentes Norte",
			"coordinates": map[string]interface{}{
				"lat": 19.4512,
				"lng": -99.1394,
			},
		},
	}
}

func TestIncident_CreateIncidentHandlerSuccess(t *testing.T) {
	body, _ := json.Marshal(validIncidentBody())
	req, err := http.NewRequest("POST", "/api/v1/incidents", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.IncidentDatabase{}
	dbMock.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Incident")).
		Return(&mocksdb.InsertOneResultHelper{}, nil)

	i := handlers.Incident{DB: dbMock, Engine: newTestEngine()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(i.CreateIncidentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var created models.Incident
	_ = json.Unmarshal(rr.Body.Bytes(), &created)
	assert.Equal(t, "ALTO", created.CrimeImpact)
	assert.Equal(t, "reportado", created.Status)
	assert.Equal(t, 14, created.DateTime.Hour())
	if assert.NotNil(t, created.Location.Coordinates) {
		assert.InDelta(t, 19.4512, created.Location.Coordinates.Lat, 1e-9)
	}
	dbMock.AssertExpectations(t)
}

func TestIncident_CreateIncidentHandlerGeocodesWhenCoordinatesMissing(t *testing.T) {
	payload := validIncidentBody()
	loc := payload["location"].(map[string]interface{})
	delete(loc, "coordinates")
	loc["number"] = "12"
	body, _ := json.Marshal(payload)

	req, err := http.NewRequest("POST", "/api/v1/incidents", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	lookup := &lookupStub{coords: &models.Coordinates{Lat: 19.4501, Lng: -99.1402}}
	dbMock := &mocksdb.IncidentDatabase{}
	dbMock.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Incident")).
		Return(&mocksdb.InsertOneResultHelper{}, nil)

	i := handlers.Incident{DB: dbMock, Engine: newTestEngine(), Geocoder: newTestGeocoder(lookup)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(i.CreateIncidentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var created models.Incident
	_ = json.Unmarshal(rr.Body.Bytes(), &created)
	if assert.NotNil(t, created.Location.Coordinates) {
		assert.InDelta(t, 19.4501, created.Location.Coordinates.Lat, 1e-9)
	}
	assert.Equal(t, []string{"Av. Insurgentes Norte 12, Tlatelolco, Ciudad de México, México"}, lookup.queries)
}

func TestIncident_CreateIncidentHandlerRejectsInvalidPayload(t *testing.T) {
	payload := validIncidentBody()
	payload["description"] = "corto"
	body, _ := json.Marshal(payload)

	req, err := http.NewRequest("POST", "/api/v1/incidents", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.IncidentDatabase{}
	i := handlers.Incident{DB: dbMock, Engine: newTestEngine()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(i.CreateIncidentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "La descripción debe tener al menos 10 caracteres")
	dbMock.AssertNotCalled(t, "InsertOne")
}

func TestIncident_CreateIncidentsBulkHandlerAllOrNothing(t *testing.T) {
	bad := validIncidentBody()
	bad["type"] = "Inundación"
	body, _ := json.Marshal([]interface{}{validIncidentBody(), bad})

	req, err := http.NewRequest("POST", "/api/v1/incidents/bulk", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.IncidentDatabase{}
	i := handlers.Incident{DB: dbMock, Engine: newTestEngine()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(i.CreateIncidentsBulkHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"index":1`)
	dbMock.AssertNotCalled(t, "InsertMany")
}

func TestIncident_CreateIncidentsBulkHandlerSuccess(t *testing.T) {
	body, _ := json.Marshal([]interface{}{validIncidentBody(), validIncidentBody()})

	req, err := http.NewRequest("POST", "/api/v1/incidents", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	insertResult := &mocksdb.InsertManyResultHelper{}
	insertResult.On("Decode").Return([]interface{}{primitive.NewObjectID(), primitive.NewObjectID()})

	dbMock := &mocksdb.IncidentDatabase{}
	dbMock.On("InsertMany", mock.Anything, mock.AnythingOfType("[]models.Incident")).
		Return(insertResult, nil)

	i := handlers.Incident{DB: dbMock, Engine: newTestEngine()}

	// array bodies posted to the single-incident route are bulk too
	rr := httptest.NewRecorder()
	http.HandlerFunc(i.CreateIncidentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"inserted":2`)
	dbMock.AssertExpectations(t)
}

func TestIncident_FetchIncidentsHandlerReshiftsDates(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/incidents?limit=10&page=0", nil)
	if err != nil {
		t.Fatal(err)
	}

	stored := models.Incident{
		ID:       primitive.NewObjectID(),
		Type:     "Crimen",
		Date:     time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		DateTime: time.Date(2024, 5, 20, 14, 30, 0, 0, time.UTC),
	}

	dbMock := &mocksdb.IncidentDatabase{}
	dbMock.On("CountDocuments", mock.Anything, bson.M{}).Return(int64(1), nil)
	dbMock.On("Find", mock.Anything, bson.M{}, mock.Anything).Return([]models.Incident{stored}, nil)

	i := handlers.Incident{DB: dbMock, Engine: newTestEngine()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(i.FetchIncidentsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp handlers.PaginatedResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	assert.Equal(t, int64(1), resp.TotalCount)
	if assert.Len(t, resp.Data, 1) {
		assert.Equal(t, 6, resp.Data[0].Date.Hour())
		assert.Equal(t, 20, resp.Data[0].DateTime.Hour())
	}
}

func TestIncident_FetchIncidentsHandlerEmptyResponse(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/incidents", nil)
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.IncidentDatabase{}
	dbMock.On("CountDocuments", mock.Anything, bson.M{}).Return(int64(0), nil)
	dbMock.On("Find", mock.Anything, bson.M{}, mock.Anything).Return(nil, nil)

	i := handlers.Incident{DB: dbMock, Engine: newTestEngine()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(i.FetchIncidentsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"data":[]`)
}

func TestIncident_IncidentsByStreetHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/incidents/street/Av.%20Manuel%20González", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"street": "Av. Manuel González"})

	stored := make([]models.Incident, 5)
	for idx := range stored {
		stored[idx] = models.Incident{ID: primitive.NewObjectID(), Type: "Crimen"}
	}

	dbMock := &mocksdb.IncidentDatabase{}
	dbMock.On("Find", mock.Anything, bson.M{"location.street": "Av. Manuel González"}, mock.Anything).
		Return(stored, nil)

	i := handlers.Incident{DB: dbMock, Engine: newTestEngine()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(i.IncidentsByStreetHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"impactLevel":"YELLOW"`)
	assert.Contains(t, rr.Body.String(), `"count":5`)
}

func TestIncident_IncidentStatisticsHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/incidents/statistics", nil)
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.IncidentDatabase{}
	dbMock.On("Aggregate", mock.Anything, mock.Anything, mock.Anything).Return(nil).
		Run(func(args mock.Arguments) {
			groups := args.Get(2).(*[]handlers.StatisticsGroup)
			*groups = []handlers.StatisticsGroup{
				{
					Type:  "Crimen",
					Count: 3,
					ByStreet: []handlers.StatisticsStreetEntry{
						{Street: "Av. Manuel González", Severity: "ALTO"},
						{Street: "Av. Manuel González", Severity: "BAJO"},
						{Street: "Av. Insurgentes Norte", Severity: "ALTO"},
					},
				},
				{
					Type:     "Iluminación",
					Count:    2,
					ByStreet: []handlers.StatisticsStreetEntry{{Street: "Eje 2 Norte"}, {Street: "Eje 2 Norte"}},
				},
			}
		})

	i := handlers.Incident{DB: dbMock, Engine: newTestEngine()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(i.IncidentStatisticsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp handlers.StatisticsResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 2, resp.HighImpact)
	assert.Equal(t, 1, resp.LowImpact)
	assert.Len(t, resp.ByType, 2)
}

func TestIncident_UpdateIncidentHandlerInvalidID(t *testing.T) {
	req, err := http.NewRequest("PUT", "/api/v1/incidents/1234", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"incident_id": "1234"})

	i := handlers.Incident{DB: &mocksdb.IncidentDatabase{}, Engine: newTestEngine()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(i.UpdateIncidentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid incident ID")
}

func TestIncident_UpdateIncidentHandlerNotFound(t *testing.T) {
	id := primitive.NewObjectID()
	req, err := http.NewRequest("PUT", "/api/v1/incidents/"+id.Hex(), bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"incident_id": id.Hex()})

	dbMock := &mocksdb.IncidentDatabase{}
	dbMock.On("FindOne", mock.Anything, bson.M{"_id": id}).
		Return(nil, errors.New("mongo: no documents in result"))

	i := handlers.Incident{DB: dbMock, Engine: newTestEngine()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(i.UpdateIncidentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	dbMock.AssertNotCalled(t, "UpdateOne")
}

func TestIncident_UpdateIncidentHandlerRederivesCrimeImpact(t *testing.T) {
	id := primitive.NewObjectID()
	body := []byte(`{"crimeType": "Robo sin violencia"}`)
	req, err := http.NewRequest("PUT", "/api/v1/incidents/"+id.Hex(), bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"incident_id": id.Hex()})

	existing := &models.Incident{ID: id, Type: "Crimen", CrimeType: "Robo con violencia", CrimeImpact: "ALTO"}

	var captured bson.M
	dbMock := &mocksdb.IncidentDatabase{}
	dbMock.On("FindOne", mock.Anything, bson.M{"_id": id}).Return(existing, nil)
	dbMock.On("UpdateOne", mock.Anything, bson.M{"_id": id}, mock.Anything).Return(nil).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(bson.M)
		})

	i := handlers.Incident{DB: dbMock, Engine: newTestEngine()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(i.UpdateIncidentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	set := captured["$set"].(bson.M)
	assert.Equal(t, "Robo sin violencia", set["crimeType"])
	assert.Equal(t, "BAJO", set["crimeImpact"])
}

func TestIncident_UpdateIncidentHandlerRejectsUnknownStatus(t *testing.T) {
	id := primitive.NewObjectID()
	body := []byte(`{"status": "cerrado"}`)
	req, err := http.NewRequest("PUT", "/api/v1/incidents/"+id.Hex(), bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"incident_id": id.Hex()})

	dbMock := &mocksdb.IncidentDatabase{}
	dbMock.On("FindOne", mock.Anything, bson.M{"_id": id}).
		Return(&models.Incident{ID: id}, nil)

	i := handlers.Incident{DB: dbMock, Engine: newTestEngine()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(i.UpdateIncidentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "El estado especificado no es válido")
	dbMock.AssertNotCalled(t, "UpdateOne")
}

func TestIncident_DeleteIncidentHandlerSuccess(t *testing.T) {
	id := primitive.NewObjectID()
	req, err := http.NewRequest("DELETE", "/api/v1/incidents/"+id.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"incident_id": id.Hex()})

	dbMock := &mocksdb.IncidentDatabase{}
	dbMock.On("FindOne", mock.Anything, bson.M{"_id": id}).Return(&models.Incident{ID: id}, nil)
	dbMock.On("DeleteOne", mock.Anything, bson.M{"_id": id}).Return(nil)

	i := handlers.Incident{DB: dbMock, Engine: newTestEngine()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(i.DeleteIncidentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	dbMock.AssertExpectations(t)
}

func TestIncident_DeleteIncidentHandlerNotFound(t *testing.T) {
	id := primitive.NewObjectID()
	req, err := http.NewRequest("DELETE", "/api/v1/incidents/"+id.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"incident_id": id.Hex()})

	dbMock := &mocksdb.IncidentDatabase{}
	dbMock.On("FindOne", mock.Anything, bson.M{"_id": id}).
		Return(nil, errors.New("mongo: no documents in result"))

	i := handlers.Incident{DB: dbMock, Engine: newTestEngine()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(i.DeleteIncidentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	dbMock.AssertNotCalled(t, "DeleteOne")
}
