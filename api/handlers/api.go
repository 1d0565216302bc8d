package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tlatelolco/crime-incidence-api/api"
	"github.com/tlatelolco/crime-incidence-api/config"
	"github.com/tlatelolco/crime-incidence-api/databases"
	"github.com/tlatelolco/crime-incidence-api/geo"
	"github.com/tlatelolco/crime-incidence-api/geocoding"
	"github.com/tlatelolco/crime-incidence-api/incidents"
	"github.com/tlatelolco/crime-incidence-api/models"
	"github.com/tlatelolco/crime-incidence-api/observability"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	DB       databases.CollectionHelper
	Config   config.Config
	Streets  *geo.CachedSource
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	metrics := observability.NewMetrics()
	auth := api.Auth{Secret: a.Config.JWTSecret}

	engine := incidents.NewEngine(clockwork.NewRealClock())
	resolver := geocoding.NewResolver(geocoding.NewNominatimLookup(a.Config.NominatimURL), metrics)
	a.Streets = geo.NewCachedSource(geo.NewOverpassSource(a.Config.OverpassURL), metrics)

	incidentDB := databases.NewIncidentDatabase(a.dbHelper)
	i := Incident{DB: incidentDB, Engine: engine, Geocoder: resolver}
	m := MapData{DB: incidentDB, Streets: a.Streets}
	att := Attendance{DB: databases.NewAttendanceDatabase(a.dbHelper)}
	ag := Agreement{DB: databases.NewAgreementDatabase(a.dbHelper)}
	si := SpecialInstruction{DB: databases.NewSpecialInstructionDatabase(a.dbHelper)}
	cr := CitizenRequest{DB: databases.NewCitizenRequestDatabase(a.dbHelper)}
	u := User{DB: databases.NewUserDatabase(a.dbHelper), Secret: a.Config.JWTSecret}
	upload := Upload{}

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware(metrics))
	r.Use(api.TimeoutMiddleware(30 * time.Second))

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	// citizen-facing routes stay open; reports come in anonymously
	apiCreate.Handle("/incidents", http.HandlerFunc(i.CreateIncidentHandler)).Methods("POST")
	apiCreate.Handle("/incidents/bulk", http.HandlerFunc(i.CreateIncidentsBulkHandler)).Methods("POST")
	apiCreate.Handle("/incidents", http.HandlerFunc(i.FetchIncidentsHandler)).Methods("GET")
	apiCreate.Handle("/incidents/statistics", http.HandlerFunc(i.IncidentStatisticsHandler)).Methods("GET")
	apiCreate.Handle("/incidents/street/{street}", http.HandlerFunc(i.IncidentsByStreetHandler)).Methods("GET")
	apiCreate.Handle("/incidents/{incident_id}", http.HandlerFunc(i.UpdateIncidentHandler)).Methods("PUT")
	apiCreate.Handle("/incidents/{incident_id}", http.HandlerFunc(i.DeleteIncidentHandler)).Methods("DELETE")
	apiCreate.Handle("/map-data", http.HandlerFunc(m.MapDataHandler)).Methods("GET")

	apiCreate.Handle("/attendance", auth.Middleware(http.HandlerFunc(att.CreateAttendanceHandler))).Methods("POST")
	apiCreate.Handle("/attendance", auth.Middleware(http.HandlerFunc(att.FetchAttendancesHandler))).Methods("GET")
	apiCreate.Handle("/attendance/{attendance_id}", auth.Middleware(http.HandlerFunc(att.GetAttendanceByIDHandler))).Methods("GET")
	apiCreate.Handle("/attendance/{attendance_id}", auth.Middleware(http.HandlerFunc(att.UpdateAttendanceHandler))).Methods("PUT")
	apiCreate.Handle("/attendance/{attendance_id}", auth.Middleware(http.HandlerFunc(att.DeleteAttendanceHandler))).Methods("DELETE")

	apiCreate.Handle("/agreements", auth.Middleware(http.HandlerFunc(ag.CreateAgreementHandler))).Methods("POST")
	apiCreate.Handle("/agreements", auth.Middleware(http.HandlerFunc(ag.FetchAgreementsHandler))).Methods("GET")
	apiCreate.Handle("/agreements/{agreement_id}", auth.Middleware(http.HandlerFunc(ag.GetAgreementByIDHandler))).Methods("GET")
	apiCreate.Handle("/agreements/{agreement_id}", auth.Middleware(http.HandlerFunc(ag.UpdateAgreementHandler))).Methods("PUT")
	apiCreate.Handle("/agreements/{agreement_id}", auth.Middleware(http.HandlerFunc(ag.DeleteAgreementHandler))).Methods("DELETE")
	apiCreate.Handle("/agreements/{agreement_id}/comments", auth.Middleware(http.HandlerFunc(ag.AddAgreementCommentHandler))).Methods("POST")

	apiCreate.Handle("/special-instructions", auth.Middleware(http.HandlerFunc(si.CreateSpecialInstructionHandler))).Methods("POST")
	apiCreate.Handle("/special-instructions", auth.Middleware(http.HandlerFunc(si.FetchSpecialInstructionsHandler))).Methods("GET")
	apiCreate.Handle("/special-instructions/{instruction_id}", auth.Middleware(http.HandlerFunc(si.UpdateSpecialInstructionHandler))).Methods("PUT")
	apiCreate.Handle("/special-instructions/{instruction_id}", auth.Middleware(http.HandlerFunc(si.DeleteSpecialInstructionHandler))).Methods("DELETE")
	apiCreate.Handle("/special-instructions/{instruction_id}/comments", auth.Middleware(http.HandlerFunc(si.AddSpecialInstructionCommentHandler))).Methods("POST")

	apiCreate.Handle("/citizen-requests", auth.Middleware(http.HandlerFunc(cr.CreateCitizenRequestHandler))).Methods("POST")
	apiCreate.Handle("/citizen-requests", auth.Middleware(http.HandlerFunc(cr.FetchCitizenRequestsHandler))).Methods("GET")
	apiCreate.Handle("/citizen-requests/{request_id}", auth.Middleware(http.HandlerFunc(cr.GetCitizenRequestByIDHandler))).Methods("GET")
	apiCreate.Handle("/citizen-requests/{request_id}", auth.Middleware(http.HandlerFunc(cr.UpdateCitizenRequestHandler))).Methods("PUT")
	apiCreate.Handle("/citizen-requests/{request_id}", auth.Middleware(http.HandlerFunc(cr.DeleteCitizenRequestHandler))).Methods("DELETE")
	apiCreate.Handle("/citizen-requests/{request_id}/comments", auth.Middleware(http.HandlerFunc(cr.AddCitizenRequestCommentHandler))).Methods("POST")

	apiCreate.Handle("/users/register", http.HandlerFunc(u.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/users/login", http.HandlerFunc(u.LoginHandler)).Methods("POST")
	apiCreate.Handle("/users", auth.Middleware(http.HandlerFunc(u.FetchUsersHandler))).Methods("GET")
	apiCreate.Handle("/users/{user_id}", auth.Middleware(http.HandlerFunc(u.DeleteUserHandler))).Methods("DELETE")

	apiCreate.Handle("/generate-signature", auth.Middleware(http.HandlerFunc(upload.GenerateSignature))).Methods("POST")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("crime-incidence-api has connected to the database")

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
