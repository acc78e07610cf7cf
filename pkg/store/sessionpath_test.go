package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionPath_Valid(t *testing.T) {
	path, err := SessionPath("/tmp/sessions", "2026-08-01T12-34-56")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/sessions", "2026-08-01T12-34-56.json"), path)
}

func TestSessionPath_AllowedCharacters(t *testing.T) {
	for _, id := range []string{"abc", "A.b_c-1", "2026-08-01T12-34-56--2026-08-02T00-00-00"} {
		_, err := SessionPath("/tmp/sessions", id)
		assert.NoError(t, err, "id %q should be accepted", id)
	}
}

func TestSessionPath_RejectsTraversal(t *testing.T) {
	cases := []string{
		"",
		"..",
		"../etc/passwd",
		"..%2F..%2Fetc",
		"foo/bar",
		"foo\\bar",
		"a..b",
		"/absolute",
		"id with spaces",
		"id\x00null",
	}
	for _, id := range cases {
		_, err := SessionPath("/tmp/sessions", id)
		assert.ErrorIs(t, err, ErrInvalidSessionID, "id %q should be rejected", id)
	}
}
