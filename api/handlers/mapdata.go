package handlers

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tlatelolco/crime-incidence-api/api"
	"github.com/tlatelolco/crime-incidence-api/config"
	"github.com/tlatelolco/crime-incidence-api/databases"
	"github.com/tlatelolco/crime-incidence-api/geo"
)

// MapData exported for testing purposes
type MapData struct {
	DB      databases.IncidentDatabase
	Streets *geo.CachedSource
}

// MapDataHandler aggregates stored incidents per street and joins them
// with the cached street geometry into a FeatureCollection ready for the
// Leaflet front-end
func (m MapData) MapDataHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := m.DB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get incidents for map", http.StatusInternalServerError, w, err)
		return
	}

	streets := m.Streets.Streets(r.Context())
	collection := geo.BuildMapData(dbResp, streets)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(collection)
}
