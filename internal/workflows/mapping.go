package workflows

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/inklane/countersign/pkg/query"
	"github.com/inklane/countersign/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "workflows", "w").
	Project("id", "ID").
	Project("title", "Title").
	Project("storage_key", "StorageKey").
	Project("filename", "Filename").
	Project("created_by", "CreatedBy").
	Project("internal_reviewer_id", "InternalReviewerID").
	Project("external_reviewer_email", "ExternalReviewerEmail").
	Project("status", "Status").
	Project("internal_approved_at", "InternalApprovedAt").
	Project("external_approved_at", "ExternalApprovedAt").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for workflow queries.
// Nil fields are ignored. Status, reviewer, and creator use exact matching;
// Title and ExternalReviewerEmail use case-insensitive contains matching.
type Filters struct {
	Title                 *string    `json:"title,omitempty"`
	Status                *Status    `json:"status,omitempty"`
	InternalReviewerID    *uuid.UUID `json:"internal_reviewer_id,omitempty"`
	CreatedBy             *uuid.UUID `json:"created_by,omitempty"`
	ExternalReviewerEmail *string    `json:"external_reviewer_email,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereContains("Title", f.Title).
		WhereContains("ExternalReviewerEmail", f.ExternalReviewerEmail).
		WhereEquals("InternalReviewerID", f.InternalReviewerID).
		WhereEquals("CreatedBy", f.CreatedBy)

	if f.Status != nil {
		b.WhereEquals("Status", int(*f.Status))
	}

	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if t := values.Get("title"); t != "" {
		f.Title = &t
	}

	if s := values.Get("status"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			status := Status(v)
			if status.Valid() {
				f.Status = &status
			}
		}
	}

	if r := values.Get("internal_reviewer_id"); r != "" {
		if id, err := uuid.Parse(r); err == nil {
			f.InternalReviewerID = &id
		}
	}

	if c := values.Get("created_by"); c != "" {
		if id, err := uuid.Parse(c); err == nil {
			f.CreatedBy = &id
		}
	}

	if e := values.Get("external_reviewer_email"); e != "" {
		f.ExternalReviewerEmail = &e
	}

	return f
}

func scanWorkflow(s repository.Scanner) (Workflow, error) {
	var w Workflow
	err := s.Scan(
		&w.ID,
		&w.Title,
		&w.StorageKey,
		&w.Filename,
		&w.CreatedBy,
		&w.InternalReviewerID,
		&w.ExternalReviewerEmail,
		&w.Status,
		&w.InternalApprovedAt,
		&w.ExternalApprovedAt,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	return w, err
}
