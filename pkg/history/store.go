// Package history persists which posts have already been relayed to which
// webhook, so restarts and overlapping collection passes never resend a post.
//
// The backing file is a single JSON object: webhook id -> lowercased account
// key -> array of lowercased post ids. It is reloaded on every operation and
// rewritten in full after every mutation, so it stays safe to inspect or edit
// by hand while the daemon is stopped. Ids are never removed; the store only
// grows.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"xwatch/pkg/logger"
)

// Mode selects the dedup scope a read query applies.
type Mode int

const (
	// ModeByAccount scopes "seen" to the (webhook, watched account) pair.
	ModeByAccount Mode = iota
	// ModeByAuthor scopes "seen" to the post id alone: a post counts as seen
	// if the webhook ever sent it, no matter which watched account surfaced
	// it. Writes are identical in both modes; only reads differ.
	ModeByAuthor
)

// ParseMode converts the config spelling of a history mode
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "by-account":
		return ModeByAccount, nil
	case "by-author":
		return ModeByAuthor, nil
	default:
		return ModeByAccount, fmt.Errorf("invalid history mode: %q", s)
	}
}

func (m Mode) String() string {
	if m == ModeByAuthor {
		return "by-author"
	}
	return "by-account"
}

// statusPattern matches the raw href form of a post id. The canonical stored
// form drops the "/status/" infix: "/nasa/status/123" becomes "nasa/123".
var statusPattern = regexp.MustCompile(`^/?([^/]+)/status/(\d+)$`)

// Store is the persisted seen-post store. A single instance is shared
// process-wide; every operation holds the mutex across its whole
// read-modify-write cycle so concurrent callers cannot interleave.
type Store struct {
	path      string
	normalize bool
	mu        sync.Mutex
	logger    logger.Logger
}

// Option configures a Store
type Option func(*Store)

// WithNormalization controls whether raw "/author/status/123" ids are
// rewritten to the canonical "author/123" form before use as keys.
func WithNormalization(enabled bool) Option {
	return func(s *Store) { s.normalize = enabled }
}

// NewStore creates a store backed by the given file path
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:      path,
		normalize: true,
		logger:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeID rewrites a raw post id into its canonical stored form
func (s *Store) NormalizeID(id string) string {
	if s.normalize {
		if m := statusPattern.FindStringSubmatch(id); m != nil {
			id = m[1] + "/" + m[2]
		}
	}
	return strings.ToLower(id)
}

// Has reports whether the given post has been seen under the given scope.
//
// ByAccount: false if the webhook is unknown, false if account is given and
// unknown under the webhook, false if id is given and absent under that
// account; otherwise true. Calling with an empty id answers "does this
// webhook/account pair exist at all", which the watcher uses to detect a
// first-ever check.
//
// ByAuthor: trivially true with an empty id; otherwise true iff the id
// appears under any account recorded for the webhook.
func (s *Store) Has(webhook, account, id string, mode Mode) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return false, err
	}

	if id != "" {
		id = s.NormalizeID(id)
	}

	if mode == ModeByAuthor {
		if id == "" {
			return true, nil
		}
		for _, ids := range data[webhook] {
			if contains(ids, id) {
				return true, nil
			}
		}
		return false, nil
	}

	accounts, ok := data[webhook]
	if !ok {
		return false, nil
	}
	if account != "" {
		ids, ok := accounts[strings.ToLower(account)]
		if !ok {
			return false, nil
		}
		if id != "" && !contains(ids, id) {
			return false, nil
		}
	}
	return true, nil
}

// Add records a post id as seen under the (webhook, account) pair. The call
// is idempotent: the webhook and account entries are created if missing and
// a duplicate id leaves the store unchanged. The write shape is the same in
// both dedup modes.
func (s *Store) Add(webhook, account, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := data[webhook]; !ok {
		data[webhook] = map[string][]string{}
	}

	if account != "" {
		account = strings.ToLower(account)
		if _, ok := data[webhook][account]; !ok {
			data[webhook][account] = []string{}
		}

		if id != "" {
			id = s.NormalizeID(id)
			if !contains(data[webhook][account], id) {
				data[webhook][account] = append(data[webhook][account], id)
			}
		}
	}

	return s.save(data)
}

// load reads the whole backing file. A missing file is an empty store; a file
// that exists but cannot be parsed is a hard error so a corrupt store is
// never silently treated as empty and overwritten.
func (s *Store) load() (map[string]map[string][]string, error) {
	contents, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]map[string][]string{}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var data map[string]map[string][]string
	if err := json.Unmarshal(contents, &data); err != nil {
		return nil, fmt.Errorf("history file %s is corrupt, refusing to continue: %w", s.path, err)
	}
	if data == nil {
		data = map[string]map[string][]string{}
	}
	return data, nil
}

// save writes the whole store back atomically via a temp file and rename
func (s *Store) save(data map[string]map[string][]string) error {
	contents, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, contents, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	s.logger.DebugWithFields("history saved", map[string]interface{}{
		"path": s.path,
	})

	return nil
}

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
