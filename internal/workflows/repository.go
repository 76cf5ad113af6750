package workflows

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/inklane/countersign/internal/identities"
	"github.com/inklane/countersign/internal/stamps"
	"github.com/inklane/countersign/pkg/mailer"
	"github.com/inklane/countersign/pkg/pagination"
	"github.com/inklane/countersign/pkg/query"
	"github.com/inklane/countersign/pkg/repository"
	"github.com/inklane/countersign/pkg/storage"
)

type repo struct {
	db          *sql.DB
	storage     storage.System
	mail        mailer.System
	identities  identities.System
	logger      *slog.Logger
	pagination  pagination.Config
	frontendURL string
}

// New creates a workflow repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	mail mailer.System,
	ids identities.System,
	logger *slog.Logger,
	pagination pagination.Config,
	frontendURL string,
) System {
	return &repo{
		db:          db,
		storage:     store,
		mail:        mail,
		identities:  ids,
		logger:      logger.With("system", "workflows"),
		pagination:  pagination,
		frontendURL: frontendURL,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Workflow], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title", "ExternalReviewerEmail")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count workflows: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanWorkflow)
	if err != nil {
		return nil, fmt.Errorf("query workflows: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Workflow, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	w, err := repository.QueryOne(ctx, r.db, q, args, scanWorkflow)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &w, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Workflow, error) {
	if cmd.Title == "" || len(cmd.Data) == 0 || cmd.ExternalReviewerEmail == "" {
		return nil, ErrInvalidRequest
	}

	reviewer, err := r.identities.Find(ctx, cmd.InternalReviewerID)
	if err != nil {
		return nil, fmt.Errorf("resolve internal reviewer: %w", err)
	}

	id := uuid.New()
	filename := sanitizeFilename(cmd.Filename)
	key := buildStorageKey(id, filename)

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), "application/pdf"); err != nil {
		return nil, fmt.Errorf("upload workflow document: %w", err)
	}

	q := `
		INSERT INTO workflows(id, title, storage_key, filename, created_by, internal_reviewer_id, external_reviewer_email, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, title, storage_key, filename, created_by, internal_reviewer_id,
				  external_reviewer_email, status, internal_approved_at, external_approved_at,
				  created_at, updated_at`

	insertArgs := []any{
		id,
		cmd.Title,
		key,
		filename,
		cmd.CreatedBy,
		cmd.InternalReviewerID,
		strings.TrimSpace(cmd.ExternalReviewerEmail),
		int(StatusPendingInternalReview),
	}

	w, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Workflow, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanWorkflow)
	})

	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	// Assignment notification never fails workflow creation.
	subject, body := buildAssignmentEmail(r.frontendURL, &w)
	if err := r.mail.Send(ctx, reviewer.Email, subject, body); err != nil {
		r.logger.Warn("assignment notification failed",
			"workflow", w.ID,
			"reviewer", reviewer.Email,
			"error", err,
		)
	}

	r.logger.Info("workflow created",
		"id", w.ID,
		"title", w.Title,
		"reviewer", w.InternalReviewerID,
	)
	return &w, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	w, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	// Stamps and credentials cascade with the workflow row.
	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM workflows WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if delErr := r.storage.Delete(ctx, w.StorageKey); delErr != nil {
		r.logger.Warn(
			"blob delete failed after DB delete",
			"key", w.StorageKey,
			"error", delErr,
		)
	}

	r.logger.Info("workflow deleted", "id", id)
	return nil
}

func (r *repo) ListForReviewer(ctx context.Context, reviewerID uuid.UUID) ([]Workflow, error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("InternalReviewerID", reviewerID).
		WhereIn("Status", []any{
			int(StatusPendingInternalReview),
			int(StatusInternalApproved),
		})

	q, args := qb.Build()
	items, err := repository.QueryMany(ctx, r.db, q, args, scanWorkflow)
	if err != nil {
		return nil, fmt.Errorf("query reviewer workflows: %w", err)
	}
	return items, nil
}

func (r *repo) ListForExternalEmail(ctx context.Context, email string) ([]Workflow, error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("ExternalReviewerEmail", &email).
		WhereIn("Status", []any{
			int(StatusPendingExternalReview),
			int(StatusCompleted),
		})

	q, args := qb.Build()
	items, err := repository.QueryMany(ctx, r.db, q, args, scanWorkflow)
	if err != nil {
		return nil, fmt.Errorf("query external workflows: %w", err)
	}
	return items, nil
}

func (r *repo) FindByStorageKey(ctx context.Context, key string) (*Workflow, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("StorageKey", &key).
		BuildSingleOrNull()

	w, err := repository.QueryOne(ctx, r.db, q, args, scanWorkflow)
	if err == nil {
		return &w, nil
	}
	if mapped := repository.MapError(err, ErrNotFound, ErrDuplicate); mapped != ErrNotFound {
		return nil, mapped
	}

	// Legacy compatibility: stored keys and viewer-supplied paths can differ
	// in prefix, so retry on the trailing filename.
	filename := path.Base(key)
	if filename == "" || filename == "." || filename == "/" {
		return nil, ErrNotFound
	}

	q, args = query.
		NewBuilder(projection).
		WhereContains("StorageKey", &filename).
		BuildSingleOrNull()

	w, err = repository.QueryOne(ctx, r.db, q, args, scanWorkflow)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &w, nil
}

func (r *repo) IsReadOnly(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}

	w, err := r.FindByStorageKey(ctx, key)
	if err != nil {
		// Fail open: an unresolvable document stays editable.
		r.logger.Debug("read-only resolution failed", "key", key, "error", err)
		return false
	}

	return w.Status == StatusCompleted
}

func (r *repo) DownloadDocument(ctx context.Context, id uuid.UUID) (*Workflow, *storage.DownloadResult, error) {
	w, err := r.Find(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	result, err := r.storage.Download(ctx, w.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("download workflow document: %w", err)
	}

	return w, result, nil
}

func (r *repo) SaveDocument(ctx context.Context, id uuid.UUID, data []byte) error {
	w, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	if w.Status == StatusCompleted {
		return ErrReadOnly
	}

	if len(data) == 0 {
		return ErrInvalidRequest
	}

	if err := r.storage.Upload(ctx, w.StorageKey, bytes.NewReader(data), "application/pdf"); err != nil {
		return fmt.Errorf("save workflow document: %w", err)
	}

	r.logger.Info("workflow document saved", "id", id, "bytes", len(data))
	return nil
}

func (r *repo) ListStamps(ctx context.Context, id uuid.UUID) ([]stamps.Stamp, error) {
	if _, err := r.Find(ctx, id); err != nil {
		return nil, err
	}
	return stamps.ListForWorkflow(ctx, r.db, id)
}

func (r *repo) Summarize(ctx context.Context, w *Workflow) Summary {
	reviewerName := "Unknown"
	if reviewer, err := r.identities.Find(ctx, w.InternalReviewerID); err == nil {
		reviewerName = reviewer.FullName
	}

	return Summary{
		ID:                    w.ID,
		Title:                 w.Title,
		Status:                w.Status,
		InternalReviewerName:  reviewerName,
		ExternalReviewerEmail: w.ExternalReviewerEmail,
		Filename:              w.Filename,
	}
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("workflows/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = path.Base(name)
	if name == "." || name == "" {
		name = "document.pdf"
	}
	return url.PathEscape(name)
}
