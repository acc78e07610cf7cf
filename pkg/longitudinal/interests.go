package longitudinal

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Interest is one research-interest note distilled to a name and keywords.
type Interest struct {
	Name     string
	Keywords []string
}

// InterestLoader reads markdown files from a configured research-interests
// directory. Each file contributes keywords from its filename, frontmatter
// (tags/topics/keywords/title), and content (headings, bold spans). A
// missing directory yields empty interests, never a failure. Results are
// cached with a TTL since the directory changes rarely.
type InterestLoader struct {
	dir string

	mu        sync.Mutex
	cached    []Interest
	fetchedAt time.Time
	ttl       time.Duration
}

// NewInterestLoader creates a loader over dir. An empty dir disables the
// integration.
func NewInterestLoader(dir string) *InterestLoader {
	return &InterestLoader{dir: dir, ttl: 5 * time.Minute}
}

// frontmatter is the subset of note metadata mined for keywords.
type frontmatter struct {
	Title    string   `yaml:"title"`
	Tags     []string `yaml:"tags"`
	Topics   []string `yaml:"topics"`
	Keywords []string `yaml:"keywords"`
}

var (
	headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	boldPattern    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// Load returns the current interests, reusing the cache while fresh.
func (l *InterestLoader) Load() []Interest {
	if l.dir == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cached != nil && time.Since(l.fetchedAt) < l.ttl {
		return l.cached
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read interests directory", "dir", l.dir, "error", err)
		}
		l.cached = []Interest{}
		l.fetchedAt = time.Now()
		return l.cached
	}

	interests := []Interest{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		interest, ok := l.parseNote(filepath.Join(l.dir, entry.Name()))
		if ok {
			interests = append(interests, interest)
		}
	}

	l.cached = interests
	l.fetchedAt = time.Now()
	return interests
}

func (l *InterestLoader) parseNote(path string) (Interest, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to read interest note", "path", path, "error", err)
		return Interest{}, false
	}
	content := string(data)

	name := strings.TrimSuffix(filepath.Base(path), ".md")
	keywords := map[string]bool{}
	for _, token := range strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	}) {
		addKeyword(keywords, token)
	}

	body := content
	if strings.HasPrefix(content, "---\n") {
		if end := strings.Index(content[4:], "\n---"); end >= 0 {
			var fm frontmatter
			if err := yaml.Unmarshal([]byte(content[4:4+end]), &fm); err == nil {
				if fm.Title != "" {
					name = fm.Title
					for _, token := range strings.Fields(fm.Title) {
						addKeyword(keywords, token)
					}
				}
				for _, list := range [][]string{fm.Tags, fm.Topics, fm.Keywords} {
					for _, keyword := range list {
						addKeyword(keywords, keyword)
					}
				}
			}
			body = content[4+end+4:]
		}
	}

	for _, match := range headingPattern.FindAllStringSubmatch(body, -1) {
		for _, token := range strings.Fields(match[1]) {
			addKeyword(keywords, token)
		}
	}
	for _, match := range boldPattern.FindAllStringSubmatch(body, -1) {
		addKeyword(keywords, match[1])
	}

	list := make([]string, 0, len(keywords))
	for keyword := range keywords {
		list = append(list, keyword)
	}
	return Interest{Name: name, Keywords: list}, true
}

func addKeyword(set map[string]bool, raw string) {
	keyword := strings.ToLower(strings.TrimSpace(raw))
	keyword = strings.Trim(keyword, "#*`:,.")
	if len(keyword) < 3 || stopWords[keyword] {
		return
	}
	set[keyword] = true
}
