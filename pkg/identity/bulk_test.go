package identity

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
)

func TestBulkLinkSimilar(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	master := f.master(t, owner, "Row")
	row := f.store.AddEntry(owner, "t1", "Row", 0)
	bentOver := f.store.AddEntry(owner, "t1", "Bent Over Row", 1)
	curl := f.store.AddEntry(owner, "t1", "Curl", 2)

	result, err := f.engine.Bulk.BulkLinkSimilar(ctx, owner, master.ID, 0.5)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.LinkedCount, 1)
	assert.Equal(t, 1, f.store.CountLinks(row.ID))
	assert.Equal(t, 0, f.store.CountLinks(curl.ID))
	assert.Equal(t, result.LinkedCount, f.store.CountLinks(row.ID)+f.store.CountLinks(bentOver.ID))

	rejected, err := f.engine.Links.IsRejected(ctx, owner, curl.ID)
	require.NoError(t, err)
	assert.False(t, rejected)

	bulk := f.events.OfType(events.ExerciseBulkLinked)
	require.Len(t, bulk, 1)
	assert.Equal(t, result.LinkedCount, bulk[0].Count)
}

func TestBulkLinkSimilar_SkipsRejectedAndLinked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	master := f.master(t, owner, "Row")
	other := f.master(t, owner, "Rowing")
	rejected := f.store.AddEntry(owner, "t1", "Row", 0)
	linkedElsewhere := f.store.AddEntry(owner, "t1", "Row", 1)
	open := f.store.AddEntry(owner, "t1", "row", 2)
	require.NoError(t, f.engine.Links.RejectLinking(ctx, owner, rejected.ID))
	f.link(t, linkedElsewhere.ID, other.ID)

	result, err := f.engine.Bulk.BulkLinkSimilar(ctx, owner, master.ID, 0.9)
	require.NoError(t, err)
	assert.Equal(t, 1, result.LinkedCount)
	assert.Equal(t, 0, f.store.CountLinks(rejected.ID))
	assert.Equal(t, 1, f.store.CountLinks(open.ID))

	state, err := f.engine.Links.ResolveLink(ctx, owner, linkedElsewhere.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Linked{MasterID: other.ID, MasterName: "Rowing"}, state)
}

func TestBulkLinkSimilar_WriteFailuresAreNotCounted(t *testing.T) {
	f := newFixture(t)
	master := f.master(t, owner, "Row")
	f.store.AddEntry(owner, "t1", "Row", 0)
	f.store.Fail("links.Upsert", errBoom)

	result, err := f.engine.Bulk.BulkLinkSimilar(context.Background(), owner, master.ID, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0, result.LinkedCount)
	assert.Empty(t, f.events.OfType(events.ExerciseBulkLinked))
}

func TestBulkLinkSimilar_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	master := f.master(t, owner, "Row")

	_, err := f.engine.Bulk.BulkLinkSimilar(ctx, owner, "missing", 0.5)
	assertStatus(t, err, 404)

	_, err = f.engine.Bulk.BulkLinkSimilar(ctx, owner, master.ID, -0.1)
	assertStatus(t, err, 400)

	_, err = f.engine.Bulk.BulkLinkSimilar(ctx, owner, master.ID, 1.1)
	assertStatus(t, err, 400)

	_, err = f.engine.Bulk.BulkLinkSimilar(ctx, owner, master.ID, math.NaN())
	assertStatus(t, err, 400)

	f.store.Fail("entries.ListUnlinked", errBoom)
	_, err = f.engine.Bulk.BulkLinkSimilar(ctx, owner, master.ID, 0.5)
	assertStatus(t, err, 503)
}

func TestBulkUnlinkAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	master := f.master(t, owner, "Row")
	keep := f.master(t, owner, "Curl")
	a := f.store.AddEntry(owner, "t1", "Row", 0)
	b := f.store.AddEntry(owner, "t1", "Rows", 1)
	c := f.store.AddEntry(owner, "t1", "Curl", 2)
	f.link(t, a.ID, master.ID)
	f.link(t, b.ID, master.ID)
	f.link(t, c.ID, keep.ID)

	result, err := f.engine.Bulk.BulkUnlinkAll(ctx, owner, master.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.UnlinkedCount)

	statuses, err := f.engine.Links.GetLinksForTemplate(ctx, owner, "t1")
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	assert.False(t, statuses[0].IsLinked)
	assert.False(t, statuses[1].IsLinked)
	assert.True(t, statuses[2].IsLinked)

	bulk := f.events.OfType(events.ExerciseBulkUnlinked)
	require.Len(t, bulk, 1)
	assert.Equal(t, 2, bulk[0].Count)
}

func TestBulkUnlinkAll_NothingToRemove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	result, err := f.engine.Bulk.BulkUnlinkAll(ctx, owner, "missing")
	require.NoError(t, err)
	assert.Equal(t, 0, result.UnlinkedCount)
	assert.Empty(t, f.events.OfType(events.ExerciseBulkUnlinked))
}

func TestBulkUnlinkAll_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.store.Fail("links.DeleteByMaster", errBoom)

	_, err := f.engine.Bulk.BulkUnlinkAll(context.Background(), owner, "m1")
	assertStatus(t, err, 503)
}
