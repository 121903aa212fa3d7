package lifecycle

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/tenderhub/internal/app/system/docstore"
	"github.com/dalemusser/tenderhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/tenderhub/internal/app/system/inputval"
)

// CreateInput is a create request as received from the HTTP layer. Dates
// and numbers stay raw so parse failures surface as validation errors.
type CreateInput struct {
	TenderID     string `validate:"notblank,max=100" label:"Tender ID"`
	Organization string `validate:"notblank,max=200" label:"Organization"`
	Description  string `validate:"notblank,max=5000" label:"Description"`
	DueDate      string `validate:"notblank" label:"Due date"`
	Price        string `label:"Price"`

	// Attributes is the raw JSON payload; only honored for admins.
	Attributes string `validate:"-"`

	Files []docstore.File `validate:"-"`
}

// UpdateInput is a partial update. Empty strings mean "not provided" and
// keep the stored value.
type UpdateInput struct {
	TenderID     string `validate:"omitempty,max=100" label:"Tender ID"`
	Organization string `validate:"omitempty,max=200" label:"Organization"`
	Description  string `validate:"omitempty,max=5000" label:"Description"`
	DueDate      string `label:"Due date"`
	Price        string `label:"Price"`

	// Attributes is nil when the field was absent from the request.
	Attributes *string `validate:"-"`

	Files []docstore.File `validate:"-"`
}

func (in *CreateInput) normalize() {
	in.TenderID = strings.TrimSpace(in.TenderID)
	in.Organization = htmlsanitize.PlainText(in.Organization)
	in.Description = htmlsanitize.PlainText(in.Description)
	in.DueDate = strings.TrimSpace(in.DueDate)
	in.Price = strings.TrimSpace(in.Price)
}

func (in *UpdateInput) normalize() {
	in.TenderID = strings.TrimSpace(in.TenderID)
	in.Organization = htmlsanitize.PlainText(in.Organization)
	in.Description = htmlsanitize.PlainText(in.Description)
	in.DueDate = strings.TrimSpace(in.DueDate)
	in.Price = strings.TrimSpace(in.Price)
}

// dateLayouts are tried in order for dueDate.
var dateLayouts = []string{"2006-01-02", time.RFC3339Nano}

// ParseDueDate accepts YYYY-MM-DD (midnight UTC) or an RFC 3339 timestamp.
func ParseDueDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, inputval.Invalid("dueDate", "Due date must be a date (YYYY-MM-DD).")
}

// ParsePrice parses a non-negative price. Blank means 0.
func ParsePrice(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, inputval.Invalid("price", "Price must be a non-negative number.")
	}
	return f, nil
}
