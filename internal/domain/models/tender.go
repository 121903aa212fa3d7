// internal/domain/models/tender.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tender statuses. Any status may move directly to any other status.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// TenderStatuses lists every legal tender status.
var TenderStatuses = []string{StatusPending, StatusApproved, StatusRejected}

// IsValidTenderStatus reports whether s is one of the legal tender statuses.
// The comparison is exact; callers normalize input before calling.
func IsValidTenderStatus(s string) bool {
	for _, v := range TenderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Tender is a procurement submission tracked through an approval workflow.
//
// The *_ci fields hold case/diacritic-folded copies of the searchable text
// (see waffle pantry/text.Fold) and are never sent to API clients.
type Tender struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenderID   string             `bson:"tender_id" json:"tenderId"`
	TenderIDCI string             `bson:"tender_id_ci" json:"-"`

	Organization   string `bson:"organization" json:"organization"`
	OrganizationCI string `bson:"organization_ci" json:"-"`

	Description   string `bson:"description" json:"description"`
	DescriptionCI string `bson:"description_ci" json:"-"`

	DueDate time.Time `bson:"due_date" json:"dueDate"`
	Price   float64   `bson:"price" json:"price"`
	Status  string    `bson:"status" json:"status"`

	// Documents keeps upload order. A persisted tender always has at least one.
	Documents  []Document  `bson:"documents" json:"documents"`
	Attributes []Attribute `bson:"attributes" json:"attributes"`

	SubmittedBy Submitter `bson:"submitted_by" json:"submittedBy"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Document is an uploaded file owned by exactly one Tender.
type Document struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	OriginalName string             `bson:"original_name" json:"originalName"`
	StorageRef   string             `bson:"storage_ref" json:"storageRef"` // backend key, used for deletion
	URL          string             `bson:"url" json:"url"`
	Size         int64              `bson:"size" json:"size"`
	MIMEType     string             `bson:"mime_type" json:"mimeType"`
	UploadedAt   time.Time          `bson:"uploaded_at" json:"uploadedAt"`
}

// Attribute is a free-form key/value pair attached to a tender.
type Attribute struct {
	Key   string `bson:"key" json:"key"`
	Value string `bson:"value" json:"value"`
}

// Submitter records who created a tender. Ownership never transfers.
type Submitter struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name,omitempty" json:"name,omitempty"`
}

// IsOwnedBy reports whether the principal with the given id created the tender.
func (t *Tender) IsOwnedBy(principalID string) bool {
	return principalID != "" && t.SubmittedBy.ID == principalID
}

// DocumentIndex returns the position of the document with the given id, or -1.
func (t *Tender) DocumentIndex(id primitive.ObjectID) int {
	for i, d := range t.Documents {
		if d.ID == id {
			return i
		}
	}
	return -1
}
