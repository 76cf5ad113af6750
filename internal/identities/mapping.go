package identities

import (
	"net/url"
	"strconv"

	"github.com/inklane/countersign/pkg/query"
	"github.com/inklane/countersign/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "identities", "i").
	Project("id", "ID").
	Project("email", "Email").
	Project("full_name", "FullName").
	Project("password_hash", "PasswordHash").
	Project("role", "Role").
	Project("active", "Active").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field: "FullName",
}

// Filters contains optional filtering criteria for identity queries.
// Nil fields are ignored. Role and Active use exact matching; Email and
// FullName use case-insensitive contains matching.
type Filters struct {
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Role     *Role   `json:"role,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereContains("Email", f.Email).
		WhereContains("FullName", f.FullName).
		WhereEquals("Active", f.Active)

	if f.Role != nil {
		b.WhereEquals("Role", int(*f.Role))
	}

	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if e := values.Get("email"); e != "" {
		f.Email = &e
	}

	if n := values.Get("full_name"); n != "" {
		f.FullName = &n
	}

	if r := values.Get("role"); r != "" {
		if v, err := strconv.Atoi(r); err == nil {
			role := Role(v)
			if role.Valid() {
				f.Role = &role
			}
		}
	}

	if a := values.Get("active"); a != "" {
		if v, err := strconv.ParseBool(a); err == nil {
			f.Active = &v
		}
	}

	return f
}

func scanIdentity(s repository.Scanner) (Identity, error) {
	var i Identity
	err := s.Scan(
		&i.ID,
		&i.Email,
		&i.FullName,
		&i.PasswordHash,
		&i.Role,
		&i.Active,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
