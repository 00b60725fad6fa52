// Package repositories is fern's storage collaborator: owner-scoped Postgres access to
// master exercises, template exercises and the links between them.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/database"
)

// NotFound returns a 404 HTTP error. Foreign-owned entities are reported the same way.
func NotFound(format string, args ...any) error {
	return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf(format, args...))
}

// Unauthenticated returns a 401 HTTP error
func Unauthenticated(message string) error {
	return httperror.NewHTTPError(http.StatusUnauthorized, message)
}

// StorageUnavailable returns a 503 HTTP error for transient backend failures
func StorageUnavailable(message string) error {
	return httperror.NewHTTPError(http.StatusServiceUnavailable, message)
}

// BadRequest returns a 400 HTTP error
func BadRequest(message string) error {
	return httperror.NewHTTPError(http.StatusBadRequest, message)
}

func hasStatus(err error, code int) bool {
	return err != nil && httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == code
}

// IsNotFound reports whether err is a NotFound error
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsStorageUnavailable reports whether err is a StorageUnavailable error
func IsStorageUnavailable(err error) bool {
	return hasStatus(err, http.StatusServiceUnavailable)
}

// RequireOwner rejects anonymous callers before any lookup happens
func RequireOwner(ownerID string) error {
	if ownerID == "" {
		return Unauthenticated("authentication required")
	}
	return nil
}

// Repository provides the database handle and logger shared by the concrete repositories
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new base repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// conn returns the transaction bound to ctx, or the pool
func (r *Repository) conn(ctx context.Context) database.Querier {
	return r.db.Executor(ctx)
}

// get runs a single-row query, mapping no rows to NotFound and everything else to StorageUnavailable
func (r *Repository) get(ctx context.Context, dest any, entity string, id string, query string, args ...any) error {
	err := r.conn(ctx).GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return NotFound("%s %s not found", entity, id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"entity": entity,
			"id":     id,
		}).Errorf("failed to get %s", entity)
		return StorageUnavailable(fmt.Sprintf("failed to get %s", entity))
	}
	return nil
}

// selectRows runs a multi-row query, mapping failures to StorageUnavailable
func (r *Repository) selectRows(ctx context.Context, dest any, operation string, query string, args ...any) error {
	if err := r.conn(ctx).SelectContext(ctx, dest, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Errorf("failed to %s", operation)
		return StorageUnavailable(fmt.Sprintf("failed to %s", operation))
	}
	return nil
}

// exec runs a statement and returns the number of affected rows
func (r *Repository) exec(ctx context.Context, operation string, query string, args ...any) (int, error) {
	result, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Errorf("failed to %s", operation)
		return 0, StorageUnavailable(fmt.Sprintf("failed to %s", operation))
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// validID reports whether id can be a primary key. Malformed ids can never exist.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func idsToAny(ids []string) []any {
	result := make([]any, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			result = append(result, id)
		}
	}
	return result
}
