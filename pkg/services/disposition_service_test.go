package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adambalm/memento/pkg/models"
	"github.com/adambalm/memento/pkg/store"
)

func newSession(t *testing.T) (*store.SessionStore, *DispositionService, string) {
	t.Helper()
	sessions := store.NewSessionStore(t.TempDir())
	id := sessions.Save(&models.SessionArtifact{
		Timestamp:       "2026-08-01T10:00:00.000Z",
		TotalTabs:       2,
		ClassifiedCount: 2,
		Groups: map[string][]models.GroupItem{
			"A": {{TabIndex: 1, Title: "Tab One", URL: "https://one.example"}},
			"B": {{TabIndex: 2, Title: "Tab Two", URL: "https://two.example"}},
		},
	})
	require.NotEmpty(t, id)
	return sessions, NewDispositionService(sessions), id
}

func TestAppend_ValidatesAction(t *testing.T) {
	_, svc, id := newSession(t)

	_, err := svc.Append(id, models.Disposition{Action: "shred", ItemID: "https://one.example"})
	assert.True(t, IsValidationError(err))

	_, err = svc.Append(id, models.Disposition{Action: models.ActionTrash})
	assert.True(t, IsValidationError(err))
}

func TestAppend_ActionSpecificValidation(t *testing.T) {
	_, svc, id := newSession(t)

	_, err := svc.Append(id, models.Disposition{Action: models.ActionRegroup, ItemID: "x", From: "A"})
	assert.True(t, IsValidationError(err), "regroup without to")

	_, err = svc.Append(id, models.Disposition{Action: models.ActionPromote, ItemID: "x"})
	assert.True(t, IsValidationError(err), "promote without target")

	_, err = svc.Append(id, models.Disposition{Action: models.ActionUndo, ItemID: "x"})
	assert.True(t, IsValidationError(err), "undo without undoes")
}

func TestAppend_MissingSession(t *testing.T) {
	_, svc, _ := newSession(t)

	_, err := svc.Append("2026-01-01T00-00-00", models.Disposition{
		Action: models.ActionTrash, ItemID: "https://one.example",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppend_IsAppendOnly(t *testing.T) {
	_, svc, id := newSession(t)

	first, err := svc.Append(id, models.Disposition{Action: models.ActionTrash, ItemID: "https://one.example"})
	require.NoError(t, err)
	second, err := svc.Append(id, models.Disposition{Action: models.ActionLater, ItemID: "https://two.example"})
	require.NoError(t, err)

	list, err := svc.Get(id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, *first, list[0])
	assert.Equal(t, *second, list[1])
}

// Trash tab1, regroup tab2 B→A, undo the regroup. tab1 stays
// trashed, tab2 is pending back in B, one unresolved item remains.
func TestView_AppendAndFold(t *testing.T) {
	_, svc, id := newSession(t)

	_, err := svc.Append(id, models.Disposition{Action: models.ActionTrash, ItemID: "https://one.example"})
	require.NoError(t, err)
	_, err = svc.Append(id, models.Disposition{Action: models.ActionRegroup, ItemID: "https://two.example", From: "B", To: "A"})
	require.NoError(t, err)
	_, err = svc.Append(id, models.Disposition{Action: models.ActionUndo, ItemID: "https://two.example", Undoes: models.ActionRegroup})
	require.NoError(t, err)

	view, err := svc.View(id)
	require.NoError(t, err)

	one := view.ItemStates["https://one.example"]
	require.NotNil(t, one)
	assert.Equal(t, models.StatusTrashed, one.Status)
	assert.NotEmpty(t, one.TrashedAt)

	two := view.ItemStates["https://two.example"]
	require.NotNil(t, two)
	assert.Equal(t, models.StatusPending, two.Status)
	assert.Equal(t, "B", two.CurrentCategory)

	assert.Equal(t, 1, view.UnresolvedCount)
	assert.False(t, view.AllResolved)
}

func TestView_LaterDispositionWinsForStatus(t *testing.T) {
	_, svc, id := newSession(t)

	_, err := svc.Append(id, models.Disposition{Action: models.ActionDefer, ItemID: "https://one.example"})
	require.NoError(t, err)
	_, err = svc.Append(id, models.Disposition{Action: models.ActionComplete, ItemID: "https://one.example"})
	require.NoError(t, err)

	view, err := svc.View(id)
	require.NoError(t, err)
	one := view.ItemStates["https://one.example"]
	assert.Equal(t, models.StatusCompleted, one.Status)
	assert.NotEmpty(t, one.CompletedAt)
}

func TestView_UndoClearsStatusFields(t *testing.T) {
	_, svc, id := newSession(t)

	_, err := svc.Append(id, models.Disposition{Action: models.ActionPromote, ItemID: "https://one.example", Target: "today"})
	require.NoError(t, err)
	_, err = svc.Append(id, models.Disposition{Action: models.ActionUndo, ItemID: "https://one.example", Undoes: models.ActionPromote})
	require.NoError(t, err)

	view, err := svc.View(id)
	require.NoError(t, err)
	one := view.ItemStates["https://one.example"]
	assert.Equal(t, models.StatusPending, one.Status)
	assert.Empty(t, one.PromotedAt)
	assert.Empty(t, one.PromotedTo)
	assert.Equal(t, models.ActionPromote, one.UndoneAction)
	assert.NotEmpty(t, one.UndoneAt)
}

func TestView_RegroupAccumulates(t *testing.T) {
	_, svc, id := newSession(t)

	_, err := svc.Append(id, models.Disposition{Action: models.ActionRegroup, ItemID: "https://two.example", From: "B", To: "A"})
	require.NoError(t, err)
	_, err = svc.Append(id, models.Disposition{Action: models.ActionRegroup, ItemID: "https://two.example", From: "A", To: "C"})
	require.NoError(t, err)

	view, err := svc.View(id)
	require.NoError(t, err)
	two := view.ItemStates["https://two.example"]
	assert.Equal(t, "C", two.CurrentCategory)
	assert.Equal(t, "B", two.RegroupedFrom)
	assert.Equal(t, "B", two.OriginalCategory)
}

func TestAppendBatch_EmptyRejected(t *testing.T) {
	_, svc, id := newSession(t)

	_, err := svc.AppendBatch(id, nil)
	assert.True(t, IsValidationError(err))
}

func TestAppendBatch_SharedTimestampAndMarker(t *testing.T) {
	_, svc, id := newSession(t)

	entries, err := svc.AppendBatch(id, []models.Disposition{
		{Action: models.ActionComplete, ItemID: "https://one.example"},
		{Action: models.ActionComplete, ItemID: "https://two.example"},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Batch)
	assert.True(t, entries[1].Batch)
	assert.Equal(t, entries[0].At, entries[1].At)

	view, err := svc.View(id)
	require.NoError(t, err)
	assert.True(t, view.AllResolved)
}

func TestAppendBatch_AtomicAcceptance(t *testing.T) {
	_, svc, id := newSession(t)

	_, err := svc.AppendBatch(id, []models.Disposition{
		{Action: models.ActionComplete, ItemID: "https://one.example"},
		{Action: "bogus", ItemID: "https://two.example"},
	})
	assert.True(t, IsValidationError(err))

	list, err := svc.Get(id)
	require.NoError(t, err)
	assert.Empty(t, list, "no partial append on batch validation failure")
}

func TestViewApplied_ReshapesGroups(t *testing.T) {
	_, svc, id := newSession(t)

	_, err := svc.Append(id, models.Disposition{Action: models.ActionTrash, ItemID: "https://one.example"})
	require.NoError(t, err)
	_, err = svc.Append(id, models.Disposition{Action: models.ActionRegroup, ItemID: "https://two.example", From: "B", To: "A"})
	require.NoError(t, err)

	applied, err := svc.ViewApplied(id)
	require.NoError(t, err)

	require.Len(t, applied.TrashedItems, 1)
	assert.Equal(t, "https://one.example", applied.TrashedItems[0].ItemID)

	items, ok := applied.Groups["A"]
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "https://two.example", items[0].URL)
	_, hasB := applied.Groups["B"]
	assert.False(t, hasB)
}

func TestFoldDispositions_ClosureOverOriginalItems(t *testing.T) {
	_, svc, id := newSession(t)

	// A disposition for an item that never existed stays in the log but adds
	// no item state.
	_, err := svc.Append(id, models.Disposition{Action: models.ActionTrash, ItemID: "https://ghost.example"})
	require.NoError(t, err)

	view, err := svc.View(id)
	require.NoError(t, err)
	assert.Len(t, view.ItemStates, 2)
	assert.Equal(t, 2, view.UnresolvedCount)
}
