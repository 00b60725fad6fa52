// Package identity is the exercise identity resolution engine. It keeps one canonical master
// exercise per normalized name and owner, scores free-text template exercises against those
// masters and records the link and reject decisions users make about them.
//
// Every operation is scoped to an owner. An empty owner is rejected before any storage call
// and entities of other owners are reported as not found.
package identity

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
)

// MasterCache caches each owner's master list. The registry invalidates on every master write.
//
// Invalidate must drop the owner's entry and advance the owner's generation. SetMasters must
// store the list only while the generation still equals the one read before the list was
// loaded, so a list read before a concurrent write is never cached after that write.
type MasterCache interface {
	GetMasters(ctx context.Context, ownerID string) ([]models.MasterExercise, bool)
	// Generation reports the owner's invalidation counter; ok is false when it cannot be read
	Generation(ctx context.Context, ownerID string) (generation int64, ok bool)
	SetMasters(ctx context.Context, ownerID string, generation int64, masters []models.MasterExercise)
	Invalidate(ctx context.Context, ownerID string)
}

// Dependencies are the collaborators shared by the engine components
type Dependencies struct {
	Masters repositories.MasterExerciseRepo
	Entries repositories.TemplateExerciseRepo
	Links   repositories.ExerciseLinkRepo
	// Cache is optional
	Cache MasterCache
	// Events is optional; defaults to events.Nop
	Events events.Emitter
	Logger ectologger.Logger
}

func (d Dependencies) emitter() events.Emitter {
	if d.Events == nil {
		return events.Nop{}
	}
	return d.Events
}

// Engine groups the identity components wired to one set of dependencies
type Engine struct {
	Registry    *Registry
	Links       *LinkManager
	Suggestions *SuggestionEngine
	Bulk        *BulkOperator
	Migrator    *Migrator
	Templates   *TemplateSync
}

// New wires every component of the engine
func New(deps Dependencies) *Engine {
	registry := NewRegistry(deps)
	links := NewLinkManager(deps, registry)
	suggestions := NewSuggestionEngine(deps, registry)
	return &Engine{
		Registry:    registry,
		Links:       links,
		Suggestions: suggestions,
		Bulk:        NewBulkOperator(deps, registry, suggestions, links),
		Migrator:    NewMigrator(deps, registry, links),
		Templates:   NewTemplateSync(deps, registry, links),
	}
}

// asStorageError keeps typed HTTP errors and reports anything else as StorageUnavailable
func asStorageError(err error, format string, args ...any) error {
	if httperror.IsHTTPError(err) {
		return err
	}
	return repositories.StorageUnavailable(fmt.Sprintf(format, args...))
}

// verified maps a failed ownership check to NotFound, so state is never mutated on an
// unverified read.
func verified(err error, format string, args ...any) error {
	if repositories.IsNotFound(err) {
		return err
	}
	return repositories.NotFound(format, args...)
}
