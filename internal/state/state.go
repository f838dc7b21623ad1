package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/snipdeck/snipdeck/internal/fileutil"
)

const (
	SessionFile           = "session.json"
	CurrentSessionVersion = "2"
	MaxUsedLanguages      = 16
)

// Pointer ties an external-edit buffer to the snippet it projects.
type Pointer struct {
	GroupID   string    `json:"group_id"`
	SnippetID string    `json:"snippet_id"`
	FilePath  string    `json:"file_path"`
	OpenedAt  time.Time `json:"opened_at"`
}

// Session is the process-wide state persisted between invocations. It is not
// safe for concurrent use; owners serialize access.
type Session struct {
	Version       string             `json:"version"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Pointers      map[string]Pointer `json:"pointers"`
	UsedLanguages []string           `json:"used_languages,omitempty"`
}

// NewSession creates a new empty session.
func NewSession() *Session {
	return &Session{
		Version:  CurrentSessionVersion,
		Pointers: make(map[string]Pointer),
	}
}

// Load reads the session file from dir.
func Load(dir string) (*Session, error) {
	path := filepath.Join(dir, SessionFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSession(), nil
		}
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}

	migrateSession(&session)

	return &session, nil
}

// Save writes the session file into dir.
func (s *Session) Save(dir string) error {
	if s.Version == "" {
		s.Version = CurrentSessionVersion
	}
	if s.Pointers == nil {
		s.Pointers = make(map[string]Pointer)
	}

	s.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(filepath.Join(dir, SessionFile), fileutil.EnsureTrailingNewline(data))
}

func (s *Session) SetPointer(tempPath string, p Pointer) {
	if s.Pointers == nil {
		s.Pointers = make(map[string]Pointer)
	}
	s.Pointers[filepath.Clean(tempPath)] = p
}

// Pointer returns the pointer recorded for an edit buffer.
func (s *Session) Pointer(tempPath string) (Pointer, bool) {
	p, ok := s.Pointers[filepath.Clean(tempPath)]
	return p, ok
}

func (s *Session) RemovePointer(tempPath string) {
	delete(s.Pointers, filepath.Clean(tempPath))
}

// PointerPaths returns the recorded buffer paths in sorted order.
func (s *Session) PointerPaths() []string {
	out := make([]string, 0, len(s.Pointers))
	for path := range s.Pointers {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// RecordUsed moves languages to the front of the used list, most recent first.
// It reports whether the list changed.
func (s *Session) RecordUsed(languages ...string) bool {
	fresh := make([]string, 0, len(languages))
	for _, lang := range languages {
		if lang = strings.TrimSpace(lang); lang != "" {
			fresh = append(fresh, lang)
		}
	}
	if len(fresh) == 0 {
		return false
	}

	next := fileutil.DedupeStrings(append(fresh, s.UsedLanguages...))
	if len(next) > MaxUsedLanguages {
		next = next[:MaxUsedLanguages]
	}
	changed := !equalStrings(next, s.UsedLanguages)
	s.UsedLanguages = next
	return changed
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func migrateSession(s *Session) {
	if s.Pointers == nil {
		s.Pointers = make(map[string]Pointer)
	}

	switch s.Version {
	case "", "1":
		// Version 1 keyed pointers by unclean paths and had no file path.
		migrated := make(map[string]Pointer, len(s.Pointers))
		for path, p := range s.Pointers {
			migrated[filepath.Clean(path)] = p
		}
		s.Pointers = migrated
		s.Version = CurrentSessionVersion
	case CurrentSessionVersion:
		// no-op
	default:
		// Keep unknown versions untouched but ensure required maps are initialized.
	}
}
