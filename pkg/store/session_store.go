package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/adambalm/memento/pkg/models"
)

// SessionStore persists session artifacts as JSON files in a directory,
// one file per session, named by the session's UTC timestamp.
type SessionStore struct {
	baseDir string
	locks   *keyedMutex
}

// NewSessionStore creates a store rooted at baseDir. The directory is
// created on the first write.
func NewSessionStore(baseDir string) *SessionStore {
	return &SessionStore{
		baseDir: baseDir,
		locks:   newKeyedMutex(),
	}
}

// BaseDir returns the store's root directory.
func (s *SessionStore) BaseDir() string {
	return s.baseDir
}

// SessionIDFromTimestamp derives the session id (and filename stem) from an
// ISO8601 timestamp: milliseconds stripped, ':' replaced with '-'. The
// trailing Z stays.
func SessionIDFromTimestamp(timestamp string) string {
	if i := strings.IndexByte(timestamp, '.'); i >= 0 {
		suffix := ""
		if strings.HasSuffix(timestamp, "Z") {
			suffix = "Z"
		}
		timestamp = timestamp[:i] + suffix
	}
	return strings.ReplaceAll(timestamp, ":", "-")
}

// NowTimestamp returns the current UTC time in the artifact timestamp format.
func NowTimestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// Save writes the artifact and returns the assigned session id. Dispositions
// are ensured to exist (as an empty list) in the written file. Save is
// non-fatal on IO error: it logs and returns an empty id so a failed write
// never aborts a classification response.
func (s *SessionStore) Save(artifact *models.SessionArtifact) string {
	if artifact.Timestamp == "" {
		artifact.Timestamp = NowTimestamp()
	}
	if artifact.Dispositions == nil {
		artifact.Dispositions = []models.Disposition{}
	}

	id := SessionIDFromTimestamp(artifact.Timestamp)
	path, err := SessionPath(s.baseDir, id)
	if err != nil {
		slog.Error("Session save rejected", "id", id, "error", err)
		return ""
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	if err := WriteJSONFile(path, artifact); err != nil {
		slog.Error("Session save failed", "id", id, "error", err)
		return ""
	}
	return id
}

// Read returns the full artifact, or nil when the session does not exist.
func (s *SessionStore) Read(sessionID string) (*models.SessionArtifact, error) {
	path, err := SessionPath(s.baseDir, sessionID)
	if err != nil {
		return nil, err
	}

	var artifact models.SessionArtifact
	if err := ReadJSONFile(path, &artifact); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return &artifact, nil
}

// Update applies mutate to the stored artifact under the per-session lock
// and writes the result back in a single atomic rename. The mutation must
// be append-only with respect to dispositions.
func (s *SessionStore) Update(sessionID string, mutate func(*models.SessionArtifact) error) (*models.SessionArtifact, error) {
	path, err := SessionPath(s.baseDir, sessionID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	var artifact models.SessionArtifact
	if err := ReadJSONFile(path, &artifact); err != nil {
		return nil, err
	}
	if err := mutate(&artifact); err != nil {
		return nil, err
	}
	if err := WriteJSONFile(path, &artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// List returns session summaries sorted by timestamp descending. Malformed
// files are skipped with a warning.
func (s *SessionStore) List() ([]models.SessionSummary, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.SessionSummary{}, nil
		}
		return nil, err
	}

	summaries := make([]models.SessionSummary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")

		artifact, err := s.Read(id)
		if err != nil || artifact == nil {
			slog.Warn("Skipping malformed session file", "file", entry.Name(), "error", err)
			continue
		}
		summaries = append(summaries, summarize(id, artifact))
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Timestamp > summaries[j].Timestamp
	})
	return summaries, nil
}

// GetLatest returns the most recent artifact with its id, or nil when the
// store is empty.
func (s *SessionStore) GetLatest() (string, *models.SessionArtifact, error) {
	summaries, err := s.List()
	if err != nil {
		return "", nil, err
	}
	if len(summaries) == 0 {
		return "", nil, nil
	}
	artifact, err := s.Read(summaries[0].ID)
	if err != nil {
		return "", nil, err
	}
	return summaries[0].ID, artifact, nil
}

// Search performs a case-insensitive substring match over the full JSON
// serialization of each artifact and returns hits with a ±50-char context
// window around the first match.
func (s *SessionStore) Search(query string) ([]models.SearchHit, error) {
	if query == "" {
		return []models.SearchHit{}, nil
	}
	summaries, err := s.List()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	hits := []models.SearchHit{}
	for _, summary := range summaries {
		artifact, err := s.Read(summary.ID)
		if err != nil || artifact == nil {
			continue
		}
		serialized, err := json.Marshal(artifact)
		if err != nil {
			continue
		}
		haystack := strings.ToLower(string(serialized))
		idx := strings.Index(haystack, needle)
		if idx < 0 {
			continue
		}

		start := idx - 50
		if start < 0 {
			start = 0
		}
		end := idx + len(needle) + 50
		if end > len(serialized) {
			end = len(serialized)
		}
		hits = append(hits, models.SearchHit{
			SessionSummary: summary,
			Context:        string(serialized[start:end]),
		})
	}
	return hits, nil
}

// SaveReclassification writes a pass-4-only rerun next to the session store
// as <origID>--<ISO8601>.json and returns the artifact id.
func (s *SessionStore) SaveReclassification(reclassDir, origID string, result *models.ThematicAnalysis) (string, error) {
	stamp := SessionIDFromTimestamp(NowTimestamp())
	id := origID + "--" + stamp
	path, err := SessionPath(reclassDir, id)
	if err != nil {
		return "", err
	}
	record := map[string]any{
		"originalSessionId": origID,
		"timestamp":         NowTimestamp(),
		"thematicAnalysis":  result,
	}
	if err := WriteJSONFile(path, record); err != nil {
		return "", err
	}
	return id, nil
}

func summarize(id string, artifact *models.SessionArtifact) models.SessionSummary {
	summary := models.SessionSummary{
		ID:        id,
		Timestamp: artifact.Timestamp,
		TabCount:  artifact.TotalTabs,
		Narrative: artifact.Narrative,
	}
	if artifact.Thematic != nil {
		summary.SessionPattern = artifact.Thematic.SessionPattern
	}
	return summary
}
