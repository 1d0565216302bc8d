package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Special instruction lifecycle states.
var SpecialInstructionStatuses = []string{"designado", "atendido", "en proceso", "en seguimiento"}

// IsValidSpecialInstructionStatus reports whether s is a known state.
func IsValidSpecialInstructionStatus(s string) bool {
	for _, v := range SpecialInstructionStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// SpecialInstruction holds the structure for the special instructions
// collection in mongo.
type SpecialInstruction struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Status      string             `json:"status" bson:"status"`
	Comments    []Comment          `json:"comments,omitempty" bson:"comments,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}
