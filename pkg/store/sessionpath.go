package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrInvalidSessionID is returned for session identifiers that fail the path
// guard. Every read and write keyed by a user-supplied id must flow through
// SessionPath, so a traversal attempt can never reach the filesystem.
var ErrInvalidSessionID = errors.New("invalid session id")

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// SessionPath validates sessionID and resolves it to <baseDir>/<id>.json.
func SessionPath(baseDir, sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSessionID)
	}
	if strings.ContainsAny(sessionID, "/\\") {
		return "", fmt.Errorf("%w: contains path separator: %q", ErrInvalidSessionID, sessionID)
	}
	if strings.Contains(sessionID, "..") {
		return "", fmt.Errorf("%w: contains '..': %q", ErrInvalidSessionID, sessionID)
	}
	if !sessionIDPattern.MatchString(sessionID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}

	path := filepath.Join(baseDir, sessionID+".json")

	// The joined path must still resolve under baseDir.
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base dir: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve session path: %w", err)
	}
	if absPath != absBase && !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: escapes base dir: %q", ErrInvalidSessionID, sessionID)
	}
	return path, nil
}
