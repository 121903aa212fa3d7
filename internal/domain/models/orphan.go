// internal/domain/models/orphan.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Orphan reasons.
const (
	OrphanCompensation = "compensation" // batch rollback could not remove the object
	OrphanReplaced     = "replaced"     // document replaced on update
	OrphanTenderDelete = "tender_delete"
	OrphanDocDelete    = "document_delete"
)

// StorageOrphan is a stored object that no tender references and whose
// removal from storage has failed at least once. The sweeper retries it.
type StorageOrphan struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StorageRef string             `bson:"storage_ref" json:"storage_ref"`
	Reason     string             `bson:"reason" json:"reason"`
	Attempts   int                `bson:"attempts" json:"attempts"`
	LastError  string             `bson:"last_error,omitempty" json:"last_error,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
