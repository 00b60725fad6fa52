package identity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/repositories/memstore"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
)

const owner = "owner-1"

var errBoom = errors.New("boom")

type fixture struct {
	store  *memstore.Store
	events *events.Recorder
	cache  *mapCache
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  memstore.New(),
		events: &events.Recorder{},
		cache:  newMapCache(),
	}
	f.engine = New(Dependencies{
		Masters: f.store.Masters(),
		Entries: f.store.Entries(),
		Links:   f.store.Links(),
		Cache:   f.cache,
		Events:  f.events,
		Logger:  ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {}),
	})
	return f
}

func (f *fixture) master(t *testing.T, ownerID, name string) *models.MasterExercise {
	t.Helper()
	m, err := f.engine.Registry.CreateOrGetMaster(context.Background(), ownerID, name)
	require.NoError(t, err)
	require.False(t, m.Synthetic())
	return m
}

func (f *fixture) link(t *testing.T, entryID, masterID string) {
	t.Helper()
	link, err := f.engine.Links.LinkToMaster(context.Background(), owner, entryID, masterID)
	require.NoError(t, err)
	require.False(t, link.Synthetic())
}

func assertStatus(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	require.True(t, httperror.IsHTTPError(err), "expected an HTTP error, got %v", err)
	assert.Equal(t, code, httperror.GetStatusCode(err))
}

// mapCache is an in-process MasterCache
type mapCache struct {
	mu          sync.Mutex
	masters     map[string][]models.MasterExercise
	generations map[string]int64
	invalidated int
	staleFills  int
}

func newMapCache() *mapCache {
	return &mapCache{
		masters:     map[string][]models.MasterExercise{},
		generations: map[string]int64{},
	}
}

func (c *mapCache) Generation(_ context.Context, ownerID string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[ownerID], true
}

func (c *mapCache) GetMasters(_ context.Context, ownerID string) ([]models.MasterExercise, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	masters, ok := c.masters[ownerID]
	return masters, ok
}

func (c *mapCache) SetMasters(_ context.Context, ownerID string, generation int64, masters []models.MasterExercise) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[ownerID] != generation {
		c.staleFills++
		return
	}
	c.masters[ownerID] = masters
}

func (c *mapCache) Invalidate(_ context.Context, ownerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.masters, ownerID)
	c.generations[ownerID]++
	c.invalidated++
}

func TestOperationsRequireOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.engine

	calls := map[string]func() error{
		"CreateOrGetMaster": func() error { _, err := e.Registry.CreateOrGetMaster(ctx, "", "Row"); return err },
		"CreateStrict":      func() error { _, _, err := e.Registry.CreateStrict(ctx, "", "Row"); return err },
		"FindSimilar":       func() error { _, err := e.Registry.FindSimilarMasters(ctx, "", "Row", 0.5); return err },
		"SearchMasters":     func() error { _, err := e.Registry.SearchMasters(ctx, "", "Row", 10, ""); return err },
		"GetMaster":         func() error { _, err := e.Registry.GetMaster(ctx, "", "m"); return err },
		"ListMasters":       func() error { _, err := e.Registry.ListMasters(ctx, ""); return err },
		"LinkToMaster":      func() error { _, err := e.Links.LinkToMaster(ctx, "", "e", "m"); return err },
		"Unlink":            func() error { return e.Links.Unlink(ctx, "", "e") },
		"IsRejected":        func() error { _, err := e.Links.IsRejected(ctx, "", "e"); return err },
		"RejectLinking":     func() error { return e.Links.RejectLinking(ctx, "", "e") },
		"ResolveLink":       func() error { _, err := e.Links.ResolveLink(ctx, "", "e"); return err },
		"GetLinksForTemplate": func() error {
			_, err := e.Links.GetLinksForTemplate(ctx, "", "t")
			return err
		},
		"GetLinkingDetails": func() error { _, err := e.Suggestions.GetLinkingDetails(ctx, "", "m"); return err },
		"BulkLinkSimilar":   func() error { _, err := e.Bulk.BulkLinkSimilar(ctx, "", "m", 0.5); return err },
		"BulkUnlinkAll":     func() error { _, err := e.Bulk.BulkUnlinkAll(ctx, "", "m"); return err },
		"Migrate":           func() error { _, err := e.Migrator.MigrateExistingExercises(ctx, ""); return err },
		"SaveTemplate": func() error {
			_, err := e.Templates.SaveTemplateExercises(ctx, "", "t", nil)
			return err
		},
		"DeleteTemplate": func() error { _, err := e.Templates.DeleteTemplate(ctx, "", "t"); return err },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assertStatus(t, call(), 401)
		})
	}
	assert.Equal(t, 0, f.store.TotalCalls())
}
