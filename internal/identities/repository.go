package identities

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/inklane/countersign/pkg/pagination"
	"github.com/inklane/countersign/pkg/query"
	"github.com/inklane/countersign/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an identity repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "identities"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Identity], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Email", "FullName")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count identities: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanIdentity)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Identity, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	i, err := repository.QueryOne(ctx, r.db, q, args, scanIdentity)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &i, nil
}

func (r *repo) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	q, args := query.
		NewBuilder(projection).
		WhereEquals("Email", &email).
		BuildSingleOrNull()

	i, err := repository.QueryOne(ctx, r.db, q, args, scanIdentity)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &i, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Identity, error) {
	if cmd.Email == "" || cmd.FullName == "" || cmd.Password == "" {
		return nil, ErrInvalidRequest
	}
	if !cmd.Role.Valid() {
		return nil, ErrInvalidRole
	}

	q := `
		INSERT INTO identities(id, email, full_name, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, full_name, password_hash, role, active, created_at, updated_at`

	insertArgs := []any{
		uuid.New(),
		strings.ToLower(strings.TrimSpace(cmd.Email)),
		cmd.FullName,
		HashPassword(cmd.Password),
		int(cmd.Role),
	}

	i, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Identity, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanIdentity)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("identity created", "id", i.ID, "email", i.Email, "role", i.Role.String())
	return &i, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM identities WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(repository.MapReferenced(err, ErrInUse), ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("identity deleted", "id", id)
	return nil
}
