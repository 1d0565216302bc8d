package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Incident type values as reported by the front-end. The set is closed;
// anything else is rejected at intake.
const (
	IncidentTypeCrime             = "Crimen"
	IncidentTypeTreeTrimming      = "Poda de árboles"
	IncidentTypeHomeless          = "Personas en situación de calle"
	IncidentTypeMotorcycleTraffic = "Tránsito de motocicletas"
	IncidentTypeAutoPartsTheft    = "Robo de autopartes"
	IncidentTypeLighting          = "Iluminación"
	IncidentTypeInfestation       = "Infestación"
	IncidentTypeCameras           = "Cámaras"
	IncidentTypeCitizenPetition   = "Petición ciudadana"
	IncidentTypeOther             = "Otro"
)

// CrimeTypeOther is the catch-all crime sub-type. It belongs to neither
// impact catalog and requires an otherTypeDescription.
const CrimeTypeOther = "Otro"

// Crime impact classifications derived from the catalogs below.
const (
	CrimeImpactHigh = "ALTO"
	CrimeImpactLow  = "BAJO"
)

// IncidentTypes is the closed set of valid incident types.
var IncidentTypes = []string{
	IncidentTypeCrime,
	IncidentTypeTreeTrimming,
	IncidentTypeHomeless,
	IncidentTypeMotorcycleTraffic,
	IncidentTypeAutoPartsTheft,
	IncidentTypeLighting,
	IncidentTypeInfestation,
	IncidentTypeCameras,
	IncidentTypeCitizenPetition,
	IncidentTypeOther,
}

// HighImpactCrimes lists the crime sub-types classified as high impact
// (crimeImpact ALTO).
var HighImpactCrimes = []string{
	"Homicidio",
	"Feminicidio",
	"Secuestro",
	"Extorsión",
	"Robo con violencia",
	"Robo de vehículo con violencia",
	"Robo a casa habitación con violencia",
	"Robo a negocio con violencia",
	"Violación",
	"Trata de personas",
	"Robo a transeunte en la vía pública con violencia",
	"Lesiones dolosas por disparo de arma de fuego",
	"Robo a transeunte en la vía pública sin violencia",
	"Robo a pasajero a bordo de metro con violencia",
	"Robo a repartidor con y sin violencia",
	"Robo a pasajero a bordo de taxi con violencia",
	"Robo a transportista con o sin violencia",
	"Robo a pasajero a bordo de microbús con y sin violencia",
	"Daño a propiedad culposo",
	"Despojo",
	"Allanamiento de domicilio",
}

// LowImpactCrimes lists the crime sub-types classified as low impact
// (crimeImpact BAJO). Disjoint from HighImpactCrimes; "Otro" belongs to
// neither.
var LowImpactCrimes = []string{
	"Robo sin violencia",
	"Robo de vehículo sin violencia",
	"Robo a casa habitación sin violencia",
	"Robo a negocio sin violencia",
	"Acoso en la vía pública",
	"Fraude",
	"Falsificación de documentos",
	"Lesiones menores (sin hospitalización)",
	"Quejas por ruido",
	"Vandalismo",
	"Violencia familiar",
	"Posesión de drogas para consumo personal",
	"Amenazas",
	"Robo a pasajero a bordo de metro sin violencia",
	"Robo de autopartes",
}

// InfestationTypes is the closed set of valid infestation sub-types.
var InfestationTypes = []string{"Ratas", "Cucarachas"}

// IncidentStatuses are the lifecycle states of a stored incident.
var IncidentStatuses = []string{"reportado", "en investigación", "resuelto", "archivado"}

// IncidentStatusReported is the status assigned at intake.
const IncidentStatusReported = "reportado"

// IsValidIncidentStatus reports whether s is a known lifecycle state.
func IsValidIncidentStatus(s string) bool {
	for _, v := range IncidentStatuses {
		if v == s {
			return true
		}
	}
	return false
}

var (
	incidentTypeSet    = toSet(IncidentTypes)
	highImpactSet      = toSet(HighImpactCrimes)
	lowImpactSet       = toSet(LowImpactCrimes)
	infestationTypeSet = toSet(InfestationTypes)
)

func toSet(values []string) map[string]struct{} {
	s := make(map[string]struct{}, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// IsValidIncidentType reports whether t is a member of the closed incident
// type set.
func IsValidIncidentType(t string) bool {
	_, ok := incidentTypeSet[t]
	return ok
}

// IsValidCrimeType reports whether ct is a legal crimeType: a member of
// either impact catalog or the "Otro" sentinel.
func IsValidCrimeType(ct string) bool {
	if ct == CrimeTypeOther {
		return true
	}
	_, high := highImpactSet[ct]
	_, low := lowImpactSet[ct]
	return high || low
}

// IsValidInfestationType reports whether it is a known infestation sub-type.
func IsValidInfestationType(it string) bool {
	_, ok := infestationTypeSet[it]
	return ok
}

// CrimeImpactFor derives the impact classification for a crime sub-type from
// catalog membership. Returns the empty string for "Otro" and for anything
// outside the catalogs.
func CrimeImpactFor(crimeType string) string {
	if _, ok := highImpactSet[crimeType]; ok {
		return CrimeImpactHigh
	}
	if _, ok := lowImpactSet[crimeType]; ok {
		return CrimeImpactLow
	}
	return ""
}

// Coordinates is a WGS84 point, lat/lng in degrees.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Location pins an incident to a street, optionally with a house number and
// resolved coordinates.
type Location struct {
	Street         string       `json:"street" bson:"street"`
	Number         string       `json:"number,omitempty" bson:"number,omitempty"`
	Coordinates    *Coordinates `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
	AdditionalInfo string       `json:"additionalInfo,omitempty" bson:"additionalInfo,omitempty"`
}

// ContactInfo holds optional reporter contact details.
type ContactInfo struct {
	Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
}

// IncidentImage is an uploaded photo attached to an incident.
type IncidentImage struct {
	URL         string `json:"url" bson:"url"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// AdditionalDetails holds the conditional extras: infestation sub-type,
// severity, images, notes and the free-text description required for
// crimeType "Otro".
type AdditionalDetails struct {
	InfestationType      string          `json:"infestationType,omitempty" bson:"infestationType,omitempty"`
	Severity             string          `json:"severity,omitempty" bson:"severity,omitempty"`
	Images               []IncidentImage `json:"images,omitempty" bson:"images,omitempty"`
	Notes                string          `json:"notes,omitempty" bson:"notes,omitempty"`
	OtherTypeDescription string          `json:"otherTypeDescription,omitempty" bson:"otherTypeDescription,omitempty"`
}

// Incident holds the structure for the incidents collection in mongo.
type Incident struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Type              string             `json:"type" bson:"type"`
	CrimeType         string             `json:"crimeType,omitempty" bson:"crimeType,omitempty"`
	CrimeImpact       string             `json:"crimeImpact,omitempty" bson:"crimeImpact,omitempty"`
	Date              time.Time          `json:"date" bson:"date"`
	Time              string             `json:"time,omitempty" bson:"time,omitempty"`
	DateTime          time.Time          `json:"dateTime" bson:"dateTime"`
	Location          Location           `json:"location" bson:"location"`
	Description       string             `json:"description" bson:"description"`
	Status            string             `json:"status" bson:"status"`
	ReportedBy        string             `json:"reportedBy" bson:"reportedBy"`
	ContactInfo       ContactInfo        `json:"contactInfo,omitempty" bson:"contactInfo,omitempty"`
	AdditionalDetails AdditionalDetails  `json:"additionalDetails,omitempty" bson:"additionalDetails,omitempty"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CoordinatesRequest carries caller-supplied coordinates. Pointers
// distinguish "absent" from a legitimate zero value.
type CoordinatesRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// LocationRequest is the raw location block of an incident submission.
type LocationRequest struct {
	Street         string              `json:"street"`
	Number         string              `json:"number"`
	Coordinates    *CoordinatesRequest `json:"coordinates"`
	AdditionalInfo string              `json:"additionalInfo"`
}

// IncidentRequest is the raw, untrusted incident submission body. The
// classification engine turns it into an Incident or rejects it.
type IncidentRequest struct {
	Type              string            `json:"type"`
	CrimeType         string            `json:"crimeType"`
	Date              string            `json:"date"`
	Time              string            `json:"time"`
	Location          LocationRequest   `json:"location"`
	Description       string            `json:"description"`
	ReportedBy        string            `json:"reportedBy"`
	ContactInfo       ContactInfo       `json:"contactInfo"`
	AdditionalDetails AdditionalDetails `json:"additionalDetails"`
}
