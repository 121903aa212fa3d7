// Package tenderqueries serves filtered, paginated tender lists.
package tenderqueries

import (
	"context"
	"regexp"
	"strings"

	tenderstore "github.com/dalemusser/tenderhub/internal/app/store/tenders"
	"github.com/dalemusser/tenderhub/internal/app/system/paging"
	"github.com/dalemusser/tenderhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Params are the list filters. Zero Page/Limit mean the defaults.
type Params struct {
	Status       string // exact match
	Organization string // case-insensitive substring
	Search       string // substring of tenderId, organization, or description
	Page         int
	Limit        int
}

// ParseParams builds Params from raw query values. Malformed numbers fall
// back to the defaults.
func ParseParams(status, organization, search, page, limit string) Params {
	pg := paging.Parse(page, limit)
	return Params{
		Status:       status,
		Organization: organization,
		Search:       search,
		Page:         pg.Page,
		Limit:        pg.Limit,
	}
}

// Normalize trims the text filters and applies paging defaults and caps.
func (p Params) Normalize() Params {
	p.Status = strings.TrimSpace(p.Status)
	p.Organization = strings.TrimSpace(p.Organization)
	p.Search = strings.TrimSpace(p.Search)
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > paging.MaxPage {
		p.Page = paging.MaxPage
	}
	if p.Limit < 1 {
		p.Limit = paging.DefaultLimit
	}
	if p.Limit > paging.MaxLimit {
		p.Limit = paging.MaxLimit
	}
	return p
}

// Pagination describes the returned page.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Result is one page of tenders.
type Result struct {
	Tenders    []models.Tender `json:"tenders"`
	Pagination Pagination      `json:"pagination"`
}

// BuildFilter returns the Mongo filter for p. Filters are ANDed; search is
// an OR across the three folded text fields.
func BuildFilter(p Params) bson.M {
	p = p.Normalize()
	var clauses []bson.M

	if p.Status != "" {
		clauses = append(clauses, bson.M{"status": p.Status})
	}
	if p.Organization != "" {
		clauses = append(clauses, bson.M{"organization_ci": contains(p.Organization)})
	}
	if p.Search != "" {
		re := contains(p.Search)
		clauses = append(clauses, bson.M{"$or": []bson.M{
			{"tender_id_ci": re},
			{"organization_ci": re},
			{"description_ci": re},
		}})
	}

	switch len(clauses) {
	case 0:
		return bson.M{}
	case 1:
		return clauses[0]
	default:
		return bson.M{"$and": clauses}
	}
}

// contains matches a folded substring; user input is never interpreted as
// a pattern.
func contains(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(text.Fold(s))}
}

// Engine runs list queries against the tenders collection.
type Engine struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Engine {
	return &Engine{c: db.Collection(tenderstore.Collection)}
}

// List returns the requested page sorted by due date ascending. The page
// and the total come from a single $facet aggregation.
func (e *Engine) List(ctx context.Context, p Params) (Result, error) {
	p = p.Normalize()
	pg := paging.Page{Page: p.Page, Limit: p.Limit}

	data := []bson.M{
		{"$sort": bson.D{{Key: "due_date", Value: 1}, {Key: "_id", Value: 1}}},
	}
	if skip := pg.Skip(); skip > 0 {
		data = append(data, bson.M{"$skip": skip})
	}
	data = append(data, bson.M{"$limit": int64(pg.Limit)})

	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: BuildFilter(p)}},
		bson.D{{Key: "$facet", Value: bson.M{
			"totalCount": []bson.M{{"$count": "count"}},
			"data":       data,
		}}},
	}

	cur, err := e.c.Aggregate(ctx, pipe)
	if err != nil {
		return Result{}, err
	}
	defer cur.Close(ctx)

	var agg struct {
		TotalCount []struct {
			Count int64 `bson:"count"`
		} `bson:"totalCount"`
		Data []models.Tender `bson:"data"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&agg); err != nil {
			return Result{}, err
		}
	}
	if err := cur.Err(); err != nil {
		return Result{}, err
	}

	res := Result{
		Tenders:    agg.Data,
		Pagination: Pagination{Page: p.Page, Limit: p.Limit},
	}
	if res.Tenders == nil {
		res.Tenders = []models.Tender{}
	}
	if len(agg.TotalCount) > 0 {
		res.Pagination.Total = agg.TotalCount[0].Count
	}
	res.Pagination.Pages = paging.Pages(res.Pagination.Total, p.Limit)
	return res, nil
}
