// Package incidents validates raw citizen submissions and enriches them
// into storable incident documents. It performs no I/O; geocoding and
// persistence happen in the handlers.
package incidents

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tlatelolco/crime-incidence-api/models"
)

// Submitted times must be 24h HH:mm, single-digit hours allowed.
var timePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Stored instants are shifted +6h so that dates submitted from Ciudad de
// México (UTC-6) land on the intended calendar day.
const cdmxShift = 6 * time.Hour

// ValidationError describes the first rule an incident payload broke.
// Index is the position of the offending element in a bulk payload, -1
// for single submissions.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Index   int    `json:"index"`
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("incident %d: %s: %s", e.Index, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Engine turns raw incident submissions into validated, classified
// incident documents. The injected clock stamps createdAt/updatedAt.
type Engine struct {
	Clock clockwork.Clock
}

// NewEngine returns an Engine stamping documents with the given clock.
func NewEngine(clock clockwork.Clock) *Engine {
	return &Engine{Clock: clock}
}

// ValidateAndEnrich validates a single submission and returns the
// enriched incident ready for persistence. Coordinates are carried over
// only when the caller supplied a complete, in-bounds pair; resolving
// missing coordinates is left to the caller.
func (e *Engine) ValidateAndEnrich(raw models.IncidentRequest) (*models.Incident, *ValidationError) {
	return e.validateAndEnrich(raw, -1)
}

// ValidateAndEnrichBulk validates every element before returning. The
// first failure aborts the whole batch so callers can keep bulk inserts
// all-or-nothing.
func (e *Engine) ValidateAndEnrichBulk(raws []models.IncidentRequest) ([]models.Incident, *ValidationError) {
	incidents := make([]models.Incident, 0, len(raws))
	for i, raw := range raws {
		incident, vErr := e.validateAndEnrich(raw, i)
		if vErr != nil {
			return nil, vErr
		}
		incidents = append(incidents, *incident)
	}
	return incidents, nil
}

func (e *Engine) validateAndEnrich(raw models.IncidentRequest, index int) (*models.Incident, *ValidationError) {
	fail := func(field, message string) (*models.Incident, *ValidationError) {
		return nil, &ValidationError{Field: field, Message: message, Index: index}
	}

	if raw.Type == "" || !models.IsValidIncidentType(raw.Type) {
		return fail("type", "El tipo de incidente es obligatorio y debe ser válido")
	}

	if raw.Date == "" {
		return fail("date", "La fecha es obligatoria")
	}
	date, err := parseDate(raw.Date)
	if err != nil {
		return fail("date", "La fecha no tiene un formato válido")
	}
	if raw.Time != "" && !timePattern.MatchString(raw.Time) {
		return fail("time", "La hora debe tener el formato HH:mm")
	}
	dateTime := deriveDateTime(date, raw.Time)

	crimeType := ""
	crimeImpact := ""
	if raw.Type == models.IncidentTypeCrime {
		if raw.CrimeType == "" {
			return fail("crimeType", "El tipo de delito es obligatorio para incidentes de tipo crimen")
		}
		if !models.IsValidCrimeType(raw.CrimeType) {
			return fail("crimeType", "El tipo de delito especificado no es válido")
		}
		if raw.CrimeType == models.CrimeTypeOther && raw.AdditionalDetails.OtherTypeDescription == "" {
			return fail("additionalDetails.otherTypeDescription", `Para delitos de tipo "Otro", se requiere una descripción del tipo de delito`)
		}
		crimeType = raw.CrimeType
		crimeImpact = models.CrimeImpactFor(raw.CrimeType)
	}

	if raw.Location.Street == "" {
		return fail("location.street", "La ubicación debe incluir al menos el nombre de la calle")
	}
	if c := raw.Location.Coordinates; c != nil {
		if c.Lat != nil && (*c.Lat < -90 || *c.Lat > 90) {
			return fail("location.coordinates.lat", "La latitud debe estar entre -90 y 90 grados")
		}
		if c.Lng != nil && (*c.Lng < -180 || *c.Lng > 180) {
			return fail("location.coordinates.lng", "La longitud debe estar entre -180 y 180 grados")
		}
	}

	if len(strings.TrimSpace(raw.Description)) < 10 {
		return fail("description", "La descripción debe tener al menos 10 caracteres")
	}

	if raw.ReportedBy == "" {
		return fail("reportedBy", "El nombre del reportante es obligatorio")
	}

	if raw.Type == models.IncidentTypeInfestation &&
		!models.IsValidInfestationType(raw.AdditionalDetails.InfestationType) {
		return fail("additionalDetails.infestationType", "Para incidentes de infestación, se debe especificar el tipo (Ratas o Cucarachas)")
	}

	now := e.Clock.Now().UTC()
	incident := &models.Incident{
		Type:        raw.Type,
		CrimeType:   crimeType,
		CrimeImpact: crimeImpact,
		Date:        date,
		Time:        raw.Time,
		DateTime:    dateTime,
		Location: models.Location{
			Street:         raw.Location.Street,
			Number:         raw.Location.Number,
			AdditionalInfo: raw.Location.AdditionalInfo,
		},
		Description:       raw.Description,
		Status:            models.IncidentStatusReported,
		ReportedBy:        raw.ReportedBy,
		ContactInfo:       raw.ContactInfo,
		AdditionalDetails: raw.AdditionalDetails,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if c := raw.Location.Coordinates; c != nil && c.Lat != nil && c.Lng != nil {
		incident.Location.Coordinates = &models.Coordinates{Lat: *c.Lat, Lng: *c.Lng}
	}
	return incident, nil
}

// NeedsGeocoding reports whether the submission arrived without a usable
// coordinate pair.
func NeedsGeocoding(raw models.IncidentRequest) bool {
	c := raw.Location.Coordinates
	return c == nil || c.Lat == nil || c.Lng == nil
}

// ValidatePartial applies the update-time rules to a partial payload:
// each supplied field must pass the same checks as on create. It returns
// the derived crime impact ("" when crimeType is absent or "Otro").
func ValidatePartial(raw models.IncidentRequest) (string, *ValidationError) {
	fail := func(field, message string) (string, *ValidationError) {
		return "", &ValidationError{Field: field, Message: message, Index: -1}
	}

	if raw.Type != "" && !models.IsValidIncidentType(raw.Type) {
		return fail("type", "El tipo de incidente no es válido")
	}
	if raw.CrimeType != "" {
		if !models.IsValidCrimeType(raw.CrimeType) {
			return fail("crimeType", "El tipo de delito especificado no es válido")
		}
		if raw.CrimeType == models.CrimeTypeOther && raw.AdditionalDetails.OtherTypeDescription == "" {
			return fail("additionalDetails.otherTypeDescription", `Para delitos de tipo "Otro", se requiere una descripción del tipo de delito`)
		}
	}
	if raw.Description != "" && len(strings.TrimSpace(raw.Description)) < 10 {
		return fail("description", "La descripción debe tener al menos 10 caracteres")
	}
	return models.CrimeImpactFor(raw.CrimeType), nil
}

// ParseDateTime applies the intake date rules to an update payload. The
// stored time string is used when the update does not supply one.
func ParseDateTime(dateStr, timeStr, storedTime string) (time.Time, time.Time, *ValidationError) {
	date, err := parseDate(dateStr)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "date", Message: "La fecha no tiene un formato válido", Index: -1}
	}
	hhmm := timeStr
	if hhmm == "" {
		hhmm = storedTime
	}
	if hhmm != "" && !timePattern.MatchString(hhmm) {
		return time.Time{}, time.Time{}, &ValidationError{Field: "time", Message: "La hora debe tener el formato HH:mm", Index: -1}
	}
	return date, deriveDateTime(date, hhmm), nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// deriveDateTime shifts the parsed date by the fixed CDMX offset, then
// lets an explicit HH:mm overwrite the hour and minute with seconds
// zeroed.
func deriveDateTime(date time.Time, hhmm string) time.Time {
	dt := date.Add(cdmxShift)
	if hhmm == "" {
		return dt
	}
	parts := strings.SplitN(hhmm, ":", 2)
	hour, _ := strconv.Atoi(parts[0])
	minute, _ := strconv.Atoi(parts[1])
	return time.Date(dt.Year(), dt.Month(), dt.Day(), hour, minute, 0, 0, dt.Location())
}
