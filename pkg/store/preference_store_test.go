package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adambalm/memento/pkg/models"
)

func newPrefStore(t *testing.T) *PreferenceStore {
	t.Helper()
	return NewPreferenceStore(filepath.Join(t.TempDir(), "learned-rules.json"))
}

func TestPreferenceStore_EmptyFile(t *testing.T) {
	store := newPrefStore(t)

	file, err := store.All()
	require.NoError(t, err)
	assert.Empty(t, file.Rules)
	assert.Empty(t, file.Rejected)
	assert.Equal(t, 1, file.Version)
}

func TestPreferenceStore_ApproveAndFetch(t *testing.T) {
	store := newPrefStore(t)

	require.NoError(t, store.Approve(models.PreferenceRule{
		ID:     "rule-1",
		Domain: "example.com",
		Rule:   `Tabs from example.com belong in "Shopping".`,
	}))

	approved, err := store.ApprovedRules()
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.True(t, approved[0].Approved)
	assert.NotEmpty(t, approved[0].ApprovedAt)
	assert.NotEmpty(t, approved[0].CreatedAt)

	domains, err := store.KnownDomains()
	require.NoError(t, err)
	assert.True(t, domains["example.com"])
}

func TestPreferenceStore_Unapprove(t *testing.T) {
	store := newPrefStore(t)
	require.NoError(t, store.Approve(models.PreferenceRule{ID: "rule-1", Domain: "example.com", Rule: "r"}))

	found, err := store.Unapprove("rule-1")
	require.NoError(t, err)
	assert.True(t, found)

	approved, err := store.ApprovedRules()
	require.NoError(t, err)
	assert.Empty(t, approved)

	found, err = store.Unapprove("rule-missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPreferenceStore_RejectIsSticky(t *testing.T) {
	store := newPrefStore(t)

	require.NoError(t, store.Reject("rule-9"))
	require.NoError(t, store.Reject("rule-9"))

	rejected, err := store.RejectedIDs()
	require.NoError(t, err)
	assert.Len(t, rejected, 1)
	assert.True(t, rejected["rule-9"])
}

func TestPreferenceStore_IncrementApplications(t *testing.T) {
	store := newPrefStore(t)
	require.NoError(t, store.Approve(models.PreferenceRule{ID: "rule-1", Domain: "example.com", Rule: "r"}))

	require.NoError(t, store.IncrementApplications([]string{"rule-1"}))
	require.NoError(t, store.IncrementApplications([]string{"rule-1"}))

	file, err := store.All()
	require.NoError(t, err)
	require.Len(t, file.Rules, 1)
	assert.Equal(t, 2, file.Rules[0].ApplicationCount)
	assert.NotEmpty(t, file.Rules[0].LastAppliedAt)
}
