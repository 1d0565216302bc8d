package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Citizen request lifecycle states.
var CitizenRequestStatuses = []string{"Pendiente", "Asignado", "En investigación", "En Proceso", "Atendido", "Archivado"}

// CitizenRequestStatusPending is the status assigned to new requests.
const CitizenRequestStatusPending = "Pendiente"

// IsValidCitizenRequestStatus reports whether s is a known request state.
func IsValidCitizenRequestStatus(s string) bool {
	for _, v := range CitizenRequestStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Requester identifies the citizen who filed a request.
type Requester struct {
	Name  string `json:"name" bson:"name"`
	Phone string `json:"phone" bson:"phone"`
}

// GeoPoint is a GeoJSON Point as stored for 2dsphere queries ([lng, lat]).
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// CitizenRequestLocation pins a citizen request to a street with an indexed
// point geometry.
type CitizenRequestLocation struct {
	Street      string   `json:"street" bson:"street"`
	Coordinates GeoPoint `json:"coordinates" bson:"coordinates"`
}

// CitizenRequest holds the structure for the citizen requests collection in
// mongo.
type CitizenRequest struct {
	ID          primitive.ObjectID     `json:"_id" bson:"_id,omitempty"`
	Title       string                 `json:"title" bson:"title"`
	Description string                 `json:"description" bson:"description"`
	Requester   Requester              `json:"requester" bson:"requester"`
	Location    CitizenRequestLocation `json:"location" bson:"location"`
	Status      string                 `json:"status" bson:"status"`
	Comments    []Comment              `json:"comments,omitempty" bson:"comments,omitempty"`
	CreatedAt   time.Time              `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt" bson:"updatedAt"`
}
