package repository_test

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/inklane/countersign/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

func TestMapErrorNil(t *testing.T) {
	got := repository.MapError(nil, errNotFound, errDuplicate)
	if got != nil {
		t.Errorf("MapError(nil) = %v, want nil", got)
	}
}

func TestMapErrorNotFound(t *testing.T) {
	got := repository.MapError(sql.ErrNoRows, errNotFound, errDuplicate)
	if !errors.Is(got, errNotFound) {
		t.Errorf("MapError(ErrNoRows) = %v, want %v", got, errNotFound)
	}
}

func TestMapErrorDuplicate(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505"}
	got := repository.MapError(pgErr, errNotFound, errDuplicate)
	if !errors.Is(got, errDuplicate) {
		t.Errorf("MapError(PgError 23505) = %v, want %v", got, errDuplicate)
	}
}

func TestMapErrorPassthrough(t *testing.T) {
	original := errors.New("some other error")
	got := repository.MapError(original, errNotFound, errDuplicate)
	if got != original {
		t.Errorf("MapError(other) = %v, want %v", got, original)
	}
}

func TestMapErrorPgNonDuplicate(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503"}
	got := repository.MapError(pgErr, errNotFound, errDuplicate)
	if got != pgErr {
		t.Errorf("MapError(PgError 23503) should pass through, got %v", got)
	}
}

func TestMapReferenced(t *testing.T) {
	errInUse := errors.New("in use")

	t.Run("foreign key violation", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23503"}
		got := repository.MapReferenced(pgErr, errInUse)
		if !errors.Is(got, errInUse) {
			t.Errorf("MapReferenced(PgError 23503) = %v, want %v", got, errInUse)
		}
	})

	t.Run("wrapped foreign key violation", func(t *testing.T) {
		wrapped := errors.Join(errors.New("delete identity"), &pgconn.PgError{Code: "23503"})
		got := repository.MapReferenced(wrapped, errInUse)
		if !errors.Is(got, errInUse) {
			t.Errorf("MapReferenced(wrapped 23503) = %v, want %v", got, errInUse)
		}
	})

	t.Run("nil", func(t *testing.T) {
		if got := repository.MapReferenced(nil, errInUse); got != nil {
			t.Errorf("MapReferenced(nil) = %v, want nil", got)
		}
	})

	t.Run("other errors pass through", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505"}
		if got := repository.MapReferenced(pgErr, errInUse); got != pgErr {
			t.Errorf("MapReferenced(PgError 23505) = %v, want passthrough", got)
		}
		other := errors.New("boom")
		if got := repository.MapReferenced(other, errInUse); got != other {
			t.Errorf("MapReferenced(other) = %v, want passthrough", got)
		}
	})
}
