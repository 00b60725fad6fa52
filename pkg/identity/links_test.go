package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
)

func TestLinkToMaster_ReplacesExistingLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	entry := f.store.AddEntry(owner, "t1", "Bench", 0)
	a := f.master(t, owner, "Bench Press")
	b := f.master(t, owner, "Incline Bench Press")

	f.link(t, entry.ID, a.ID)
	f.link(t, entry.ID, b.ID)

	assert.Equal(t, 1, f.store.CountLinks(entry.ID))
	state, err := f.engine.Links.ResolveLink(ctx, owner, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Linked{MasterID: b.ID, MasterName: "Incline Bench Press"}, state)
	assert.Len(t, f.events.OfType(events.ExerciseLinked), 2)
}

func TestLinkToMaster_OwnershipIsVerified(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mine := f.store.AddEntry(owner, "t1", "Row", 0)
	theirs := f.store.AddEntry("owner-2", "t2", "Row", 0)
	myMaster := f.master(t, owner, "Row")
	theirMaster := f.master(t, "owner-2", "Row")

	_, err := f.engine.Links.LinkToMaster(ctx, owner, theirs.ID, myMaster.ID)
	assertStatus(t, err, 404)

	_, err = f.engine.Links.LinkToMaster(ctx, owner, mine.ID, theirMaster.ID)
	assertStatus(t, err, 404)

	_, err = f.engine.Links.LinkToMaster(ctx, owner, "missing", myMaster.ID)
	assertStatus(t, err, 404)

	assert.Equal(t, 0, f.store.Calls("links.Upsert"))
}

func TestLinkToMaster_VerificationFailureIsNotFound(t *testing.T) {
	ctx := context.Background()

	for _, operation := range []string{"entries.GetByID", "masters.GetByID"} {
		t.Run(operation, func(t *testing.T) {
			f := newFixture(t)
			entry := f.store.AddEntry(owner, "t1", "Row", 0)
			master := f.master(t, owner, "Row")
			f.store.Fail(operation, errBoom)

			_, err := f.engine.Links.LinkToMaster(ctx, owner, entry.ID, master.ID)
			assertStatus(t, err, 404)
			assert.Equal(t, 0, f.store.Calls("links.Upsert"))
		})
	}
}

func TestLinkToMaster_WriteFailureReturnsSyntheticLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	entry := f.store.AddEntry(owner, "t1", "Row", 0)
	master := f.master(t, owner, "Row")
	f.store.Fail("links.Upsert", errBoom)

	link, err := f.engine.Links.LinkToMaster(ctx, owner, entry.ID, master.ID)
	require.NoError(t, err)
	assert.True(t, link.Synthetic())
	assert.Equal(t, entry.ID, link.TemplateExerciseID)
	assert.Equal(t, master.ID, link.MasterExerciseID)
	assert.Equal(t, owner, link.OwnerID)
	assert.Empty(t, f.events.OfType(events.ExerciseLinked))
}

func TestUnlink_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	entry := f.store.AddEntry(owner, "t1", "Row", 0)
	master := f.master(t, owner, "Row")
	f.link(t, entry.ID, master.ID)

	require.NoError(t, f.engine.Links.Unlink(ctx, owner, entry.ID))
	require.NoError(t, f.engine.Links.Unlink(ctx, owner, entry.ID))
	require.NoError(t, f.engine.Links.Unlink(ctx, owner, "never-linked"))

	assert.Equal(t, 0, f.store.CountLinks(entry.ID))
	assert.Len(t, f.events.OfType(events.ExerciseUnlinked), 1)
}

func TestUnlink_ForeignOwnerLeavesLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	entry := f.store.AddEntry(owner, "t1", "Row", 0)
	master := f.master(t, owner, "Row")
	f.link(t, entry.ID, master.ID)

	require.NoError(t, f.engine.Links.Unlink(ctx, "owner-2", entry.ID))
	assert.Equal(t, 1, f.store.CountLinks(entry.ID))
}

func TestUnlink_StorageFailureStillSucceeds(t *testing.T) {
	f := newFixture(t)
	f.store.Fail("links.DeleteByEntry", errBoom)

	assert.NoError(t, f.engine.Links.Unlink(context.Background(), owner, "e1"))
}

func TestRejectLinking_IsSticky(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rejected := f.store.AddEntry(owner, "t1", "Bench Press", 0)
	open := f.store.AddEntry(owner, "t1", "Bench Press", 1)
	bench := f.master(t, owner, "Bench Press")
	incline := f.master(t, owner, "Incline Bench Press")

	require.NoError(t, f.engine.Links.RejectLinking(ctx, owner, rejected.ID))

	isRejected, err := f.engine.Links.IsRejected(ctx, owner, rejected.ID)
	require.NoError(t, err)
	assert.True(t, isRejected)

	for _, master := range []*models.MasterExercise{bench, incline} {
		details, err := f.engine.Suggestions.GetLinkingDetails(ctx, owner, master.ID)
		require.NoError(t, err)
		ids := []string{}
		for _, p := range details.PotentialLinks {
			ids = append(ids, p.ID)
		}
		assert.NotContains(t, ids, rejected.ID)
		assert.Contains(t, ids, open.ID)
	}

	// accepting a link clears the flag, so the entry is suggested again once unlinked
	f.link(t, rejected.ID, bench.ID)
	require.NoError(t, f.engine.Links.Unlink(ctx, owner, rejected.ID))

	isRejected, err = f.engine.Links.IsRejected(ctx, owner, rejected.ID)
	require.NoError(t, err)
	assert.False(t, isRejected)

	details, err := f.engine.Suggestions.GetLinkingDetails(ctx, owner, bench.ID)
	require.NoError(t, err)
	require.Len(t, details.PotentialLinks, 2)
}

func TestRejectLinking_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("foreign entry is not found", func(t *testing.T) {
		f := newFixture(t)
		theirs := f.store.AddEntry("owner-2", "t1", "Row", 0)
		assertStatus(t, f.engine.Links.RejectLinking(ctx, owner, theirs.ID), 404)
	})

	t.Run("unverifiable entry is not found", func(t *testing.T) {
		f := newFixture(t)
		entry := f.store.AddEntry(owner, "t1", "Row", 0)
		f.store.Fail("entries.GetByID", errBoom)
		assertStatus(t, f.engine.Links.RejectLinking(ctx, owner, entry.ID), 404)
		assert.Equal(t, 0, f.store.Calls("entries.SetLinkingRejected"))
	})

	t.Run("flag write failure surfaces", func(t *testing.T) {
		f := newFixture(t)
		entry := f.store.AddEntry(owner, "t1", "Row", 0)
		f.store.Fail("entries.SetLinkingRejected", errBoom)
		assertStatus(t, f.engine.Links.RejectLinking(ctx, owner, entry.ID), 503)
	})
}

func TestIsRejected_DefaultsToFalse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	entry := f.store.AddEntry(owner, "t1", "Row", 0)
	require.NoError(t, f.engine.Links.RejectLinking(ctx, owner, entry.ID))
	f.store.Fail("entries.GetByID", errBoom)

	rejected, err := f.engine.Links.IsRejected(ctx, owner, entry.ID)
	require.NoError(t, err)
	assert.False(t, rejected)

	rejected, err = f.engine.Links.IsRejected(ctx, owner, "missing")
	require.NoError(t, err)
	assert.False(t, rejected)
}

func TestResolveLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	entry := f.store.AddEntry(owner, "t1", "Row", 0)

	state, err := f.engine.Links.ResolveLink(ctx, owner, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Unlinked{}, state)

	_, err = f.engine.Links.ResolveLink(ctx, "owner-2", entry.ID)
	assertStatus(t, err, 404)

	f.store.Fail("links.GetByEntry", errBoom)
	_, err = f.engine.Links.ResolveLink(ctx, owner, entry.ID)
	assertStatus(t, err, 503)
}

func TestGetLinksForTemplate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	second := f.store.AddEntry(owner, "t1", "Curl", 1)
	first := f.store.AddEntry(owner, "t1", "Row", 0)
	f.store.AddEntry(owner, "t2", "Squat", 0)
	row := f.master(t, owner, "Row")
	f.link(t, first.ID, row.ID)

	statuses, err := f.engine.Links.GetLinksForTemplate(ctx, owner, "t1")
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	assert.Equal(t, first.ID, statuses[0].EntryID)
	assert.True(t, statuses[0].IsLinked)
	require.NotNil(t, statuses[0].MasterID)
	assert.Equal(t, row.ID, *statuses[0].MasterID)
	assert.Equal(t, "Row", *statuses[0].MasterName)

	assert.Equal(t, second.ID, statuses[1].EntryID)
	assert.Equal(t, "Curl", statuses[1].ExerciseName)
	assert.False(t, statuses[1].IsLinked)
	assert.Nil(t, statuses[1].MasterID)
	assert.Nil(t, statuses[1].MasterName)
}

func TestGetLinksForTemplate_Empty(t *testing.T) {
	f := newFixture(t)

	statuses, err := f.engine.Links.GetLinksForTemplate(context.Background(), owner, "missing")
	require.NoError(t, err)
	assert.NotNil(t, statuses)
	assert.Empty(t, statuses)
}
