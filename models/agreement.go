package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Agreement lifecycle states.
var AgreementStatuses = []string{"pendiente", "en_progreso", "completado", "cancelado", "informacion"}

// IsValidAgreementStatus reports whether s is a known agreement state.
func IsValidAgreementStatus(s string) bool {
	for _, v := range AgreementStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// AgreementAttachment is a file attached to an agreement.
type AgreementAttachment struct {
	Filename   string    `json:"filename" bson:"filename"`
	Path       string    `json:"path" bson:"path"`
	UploadedAt time.Time `json:"uploadedAt" bson:"uploadedAt"`
}

// Comment is a dated, authored note reused across the council entities.
type Comment struct {
	Text   string    `json:"text" bson:"text"`
	Author string    `json:"author" bson:"author"`
	Date   time.Time `json:"date" bson:"date"`
}

// Agreement holds the structure for the agreements collection in mongo.
type Agreement struct {
	ID          primitive.ObjectID    `json:"_id" bson:"_id,omitempty"`
	Title       string                `json:"title" bson:"title"`
	Description string                `json:"description" bson:"description"`
	Date        time.Time             `json:"date" bson:"date"`
	Status      string                `json:"status" bson:"status"`
	AssignedTo  []string              `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	CreatedBy   string                `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	DueDate     *time.Time            `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	Priority    string                `json:"priority,omitempty" bson:"priority,omitempty"`
	Attachments []AgreementAttachment `json:"attachments,omitempty" bson:"attachments,omitempty"`
	Comments    []Comment             `json:"comments,omitempty" bson:"comments,omitempty"`
	CreatedAt   time.Time             `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt" bson:"updatedAt"`
}
