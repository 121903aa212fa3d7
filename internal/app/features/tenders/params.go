// internal/app/features/tenders/params.go
package tenders

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// objectIDParam reads a hex ObjectID from the route. An unparseable id
// cannot name a stored tender, so callers answer 404.
func objectIDParam(r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
