package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attendance states for a participant at a council session.
var AttendanceStates = []string{"titular", "suplente", "ausente"}

// IsValidAttendanceState reports whether s is a known attendance state.
func IsValidAttendanceState(s string) bool {
	for _, v := range AttendanceStates {
		if v == s {
			return true
		}
	}
	return false
}

// AttendanceEntry records one participant's attendance state.
type AttendanceEntry struct {
	ParticipantID string `json:"participantId" bson:"participantId"`
	Attendance    string `json:"attendance" bson:"attendance"`
}

// Attendance holds the structure for the attendance collection in mongo,
// one document per session date.
type Attendance struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Date         time.Time          `json:"date" bson:"date"`
	Participants []AttendanceEntry  `json:"participants" bson:"participants"`
	CreatedBy    string             `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}
