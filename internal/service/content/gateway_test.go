package content

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tome-api/internal/domain"
)

func TestDecideEdit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		level          domain.AccessLevel
		forkable       bool
		contentChanged bool
		want           mutationDecision
	}{
		{"owner edits in place", domain.AccessOwner, true, true, decisionDirectEdit},
		{"owner edits in place even when unchanged", domain.AccessOwner, true, false, decisionDirectEdit},
		{"owner edits non-forkable module", domain.AccessOwner, false, true, decisionDirectEdit},
		{"editor on forkable module forks", domain.AccessEditor, true, true, decisionForkThenEdit},
		{"viewer on forkable module forks", domain.AccessViewer, true, true, decisionForkThenEdit},
		{"no grant on forkable module forks", domain.AccessNone, true, true, decisionForkThenEdit},
		{"unchanged content skips", domain.AccessEditor, true, false, decisionNoopSkip},
		{"unchanged content skips without grant", domain.AccessNone, true, false, decisionNoopSkip},
		{"editor on non-forkable module rejected", domain.AccessEditor, false, true, decisionUnauthorized},
		{"viewer on non-forkable module rejected", domain.AccessViewer, false, false, decisionUnauthorized},
		{"no grant on non-forkable module rejected", domain.AccessNone, false, true, decisionUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, decideEdit(tt.level, tt.forkable, tt.contentChanged))
		})
	}
}

func TestDecideDelete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		level    domain.AccessLevel
		forkable bool
		want     mutationDecision
	}{
		{"owner deletes in place", domain.AccessOwner, true, decisionDirectEdit},
		{"owner deletes on non-forkable module", domain.AccessOwner, false, decisionDirectEdit},
		{"editor on forkable module forks", domain.AccessEditor, true, decisionForkThenEdit},
		{"viewer on forkable module forks", domain.AccessViewer, true, decisionForkThenEdit},
		{"no grant rejected even on forkable module", domain.AccessNone, true, decisionUnauthorized},
		{"editor on non-forkable module rejected", domain.AccessEditor, false, decisionUnauthorized},
		{"no grant on non-forkable module rejected", domain.AccessNone, false, decisionUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, decideDelete(tt.level, tt.forkable))
		})
	}
}

func TestUpdateItem_OwnerEditsInPlace(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ownerID := uuid.New()
	created := createModule(t, f, ownerID, true, card("uno", "one"))
	item := created.Items[0]
	oldHash := item.ContentHash

	result, err := f.svc.UpdateItem(context.Background(), ownerID, created.Module.ID, item.ID, card("uno", "ONE"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.Equal(t, uuid.Nil, result.ForkedModuleID)
	assert.Equal(t, item.ID, result.Item.ID)
	assert.NotEqual(t, oldHash, result.Item.ContentHash)
	assert.Len(t, f.modules.modules, 1, "owner edits never fork")
}

func TestUpdateItem_IdenticalContentSkips(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := createModule(t, f, uuid.New(), true, card("uno", "one"))
	item := created.Items[0]

	editorID := uuid.New()
	grantLevel(t, f, editorID, created.Module.ID, domain.AccessEditor)

	before := f.modules.itemWrites
	// Same content, different key order: still identical.
	result, err := f.svc.UpdateItem(context.Background(), editorID, created.Module.ID, item.ID,
		[]byte(`{"back":"one","front":"uno"}`))
	require.NoError(t, err)

	assert.Equal(t, OutcomeSkipped, result.Outcome)
	assert.Equal(t, item.ID, result.Item.ID)
	assert.Equal(t, before, f.modules.itemWrites, "a skipped edit writes nothing")
	assert.Len(t, f.modules.modules, 1, "no spurious fork on identical resubmission")
}

func TestUpdateItem_NonOwnerChangeForks(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ownerID := uuid.New()
	created := createModule(t, f, ownerID, true, card("uno", "one"), card("dos", "two"))
	target := created.Items[1]
	sourceHash := target.ContentHash

	editorID := uuid.New()
	grantLevel(t, f, editorID, created.Module.ID, domain.AccessEditor)

	result, err := f.svc.UpdateItem(context.Background(), editorID, created.Module.ID, target.ID, card("dos", "TWO"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeForked, result.Outcome)
	assert.NotEqual(t, uuid.Nil, result.ForkedModuleID)
	assert.NotEqual(t, created.Module.ID, result.ForkedModuleID)

	// The edit landed on the copy, linked by identity to the source item.
	require.NotNil(t, result.Item.SourceItemID)
	assert.Equal(t, target.ID, *result.Item.SourceItemID)
	assert.JSONEq(t, `{"front":"dos","back":"TWO"}`, string(result.Item.Content))

	// The source module and its item are untouched.
	sourceItems, err := f.modules.ListItems(context.Background(), created.Module.ID)
	require.NoError(t, err)
	require.Len(t, sourceItems, 2)
	assert.Equal(t, sourceHash, sourceItems[1].ContentHash)
	assert.JSONEq(t, `{"front":"dos","back":"two"}`, string(sourceItems[1].Content))

	// The editor owns the fork.
	level, err := f.grants.GetLevel(context.Background(), editorID, result.ForkedModuleID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccessOwner, level)

	// The untouched item in the fork keeps the source content verbatim.
	forkedItems, err := f.modules.ListItems(context.Background(), result.ForkedModuleID)
	require.NoError(t, err)
	require.Len(t, forkedItems, 2)
	assert.Equal(t, created.Items[0].ContentHash, forkedItems[0].ContentHash)
}

func TestUpdateItem_NonForkableNonOwnerRejected(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := createModule(t, f, uuid.New(), false, card("uno", "one"))
	item := created.Items[0]

	editorID := uuid.New()
	grantLevel(t, f, editorID, created.Module.ID, domain.AccessEditor)

	before := f.modules.itemWrites
	_, err := f.svc.UpdateItem(context.Background(), editorID, created.Module.ID, item.ID, card("uno", "ONE"))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, before, f.modules.itemWrites)
	assert.Len(t, f.modules.modules, 1, "rejected edits never fork")
}

func TestUpdateItem_ArchivedHiddenFromNonOwner(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ownerID := uuid.New()
	created := createModule(t, f, ownerID, true, card("uno", "one"))
	item := created.Items[0]

	_, err := f.svc.ArchiveModule(context.Background(), ownerID, created.Module.ID)
	require.NoError(t, err)

	// Even on a forkable module, archiving ends the copy-on-write path for
	// everyone but the owner. The edit must not carve a fork out of content
	// the caller can no longer read.
	before := f.modules.itemWrites
	_, err = f.svc.UpdateItem(context.Background(), uuid.New(), created.Module.ID, item.ID, card("uno", "ONE"))
	assert.ErrorIs(t, err, ErrModuleNotFound)
	assert.Equal(t, before, f.modules.itemWrites)
	assert.Len(t, f.modules.modules, 1, "archived modules never fork")
}

func TestUpdateItem_ArchivedOwnerStillEdits(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ownerID := uuid.New()
	created := createModule(t, f, ownerID, true, card("uno", "one"))
	item := created.Items[0]

	_, err := f.svc.ArchiveModule(context.Background(), ownerID, created.Module.ID)
	require.NoError(t, err)

	result, err := f.svc.UpdateItem(context.Background(), ownerID, created.Module.ID, item.ID, card("uno", "ONE"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
}

func TestUpdateItem_ItemFromDifferentModule(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ownerID := uuid.New()
	a := createModule(t, f, ownerID, true, card("a", "b"))
	b := createModule(t, f, ownerID, true, card("c", "d"))

	_, err := f.svc.UpdateItem(context.Background(), ownerID, a.Module.ID, b.Items[0].ID, card("c", "D"))
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestDeleteItem_OwnerDeletesInPlace(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ownerID := uuid.New()
	created := createModule(t, f, ownerID, true, card("uno", "one"), card("dos", "two"))

	result, err := f.svc.DeleteItem(context.Background(), ownerID, created.Module.ID, created.Items[0].ID)
	require.NoError(t, err)

	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.Equal(t, uuid.Nil, result.ForkedModuleID)

	remaining, err := f.modules.ListItems(context.Background(), created.Module.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestDeleteItem_ArchivedHiddenFromNonOwner(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ownerID := uuid.New()
	created := createModule(t, f, ownerID, true, card("uno", "one"))

	viewerID := uuid.New()
	grantLevel(t, f, viewerID, created.Module.ID, domain.AccessViewer)

	_, err := f.svc.ArchiveModule(context.Background(), ownerID, created.Module.ID)
	require.NoError(t, err)

	_, err = f.svc.DeleteItem(context.Background(), viewerID, created.Module.ID, created.Items[0].ID)
	assert.ErrorIs(t, err, ErrModuleNotFound)
	assert.Len(t, f.modules.modules, 1, "archived modules never fork")
}

func TestDeleteItem_NonOwnerForks(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := createModule(t, f, uuid.New(), true, card("uno", "one"), card("dos", "two"))
	target := created.Items[0]

	viewerID := uuid.New()
	grantLevel(t, f, viewerID, created.Module.ID, domain.AccessViewer)

	result, err := f.svc.DeleteItem(context.Background(), viewerID, created.Module.ID, target.ID)
	require.NoError(t, err)

	assert.Equal(t, OutcomeForked, result.Outcome)
	require.NotEqual(t, uuid.Nil, result.ForkedModuleID)

	// The source keeps both items; the fork has one.
	sourceItems, err := f.modules.ListItems(context.Background(), created.Module.ID)
	require.NoError(t, err)
	assert.Len(t, sourceItems, 2)

	forkedItems, err := f.modules.ListItems(context.Background(), result.ForkedModuleID)
	require.NoError(t, err)
	require.Len(t, forkedItems, 1)
	require.NotNil(t, forkedItems[0].SourceItemID)
	assert.Equal(t, created.Items[1].ID, *forkedItems[0].SourceItemID)
}

func TestDeleteItem_NoGrantRejected(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := createModule(t, f, uuid.New(), true, card("uno", "one"))

	_, err := f.svc.DeleteItem(context.Background(), uuid.New(), created.Module.ID, created.Items[0].ID)
	assert.ErrorIs(t, err, ErrUnauthorized, "deleting requires some existing access even on forkable modules")
	assert.Len(t, f.modules.modules, 1)
}

func TestDeleteItem_NonForkableEditorRejected(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := createModule(t, f, uuid.New(), false, card("uno", "one"))

	editorID := uuid.New()
	grantLevel(t, f, editorID, created.Module.ID, domain.AccessEditor)

	_, err := f.svc.DeleteItem(context.Background(), editorID, created.Module.ID, created.Items[0].ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	remaining, err := f.modules.ListItems(context.Background(), created.Module.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
