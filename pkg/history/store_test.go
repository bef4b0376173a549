package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "history.json"), opts...)
}

func readRaw(t *testing.T, s *Store) map[string]map[string][]string {
	t.Helper()
	contents, err := os.ReadFile(s.path)
	require.NoError(t, err)
	var data map[string]map[string][]string
	require.NoError(t, json.Unmarshal(contents, &data))
	return data
}

func TestHasOnEmptyStore(t *testing.T) {
	s := newTestStore(t)

	seen, err := s.Has("hook", "NASA", "/NASA/status/123", ModeByAccount)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestAddThenHas(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Add("hook", "NASA", "/NASA/status/123"))

	seen, err := s.Has("hook", "nasa", "/nasa/status/123", ModeByAccount)
	require.NoError(t, err)
	assert.True(t, seen)

	// Case folding: mixed-case lookups hit the same entry
	seen, err = s.Has("hook", "NaSa", "/NaSa/status/123", ModeByAccount)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestAddIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Add("hook", "nasa", "/nasa/status/123"))
	require.NoError(t, s.Add("hook", "nasa", "/nasa/status/123"))

	seen, err := s.Has("hook", "nasa", "/nasa/status/123", ModeByAccount)
	require.NoError(t, err)
	assert.True(t, seen)

	data := readRaw(t, s)
	assert.Len(t, data["hook"]["nasa"], 1, "duplicate add must not grow the store")
}

func TestIDNormalization(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Add("hook", "nasa", "/NASA/status/456"))

	data := readRaw(t, s)
	assert.Equal(t, []string{"nasa/456"}, data["hook"]["nasa"])

	// The compact form matches the raw href form
	seen, err := s.Has("hook", "nasa", "nasa/456", ModeByAccount)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestNormalizationDisabled(t *testing.T) {
	s := newTestStore(t, WithNormalization(false))

	require.NoError(t, s.Add("hook", "nasa", "/NASA/status/456"))

	data := readRaw(t, s)
	assert.Equal(t, []string{"/nasa/status/456"}, data["hook"]["nasa"])
}

func TestScopingModes(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Add("hook", "accountA", "/nasa/status/789"))

	// A different watched account has not seen the post in by-account scope
	seen, err := s.Has("hook", "accountB", "/nasa/status/789", ModeByAccount)
	require.NoError(t, err)
	assert.False(t, seen)

	// But the webhook has seen it in by-author scope, under any account
	seen, err = s.Has("hook", "", "/nasa/status/789", ModeByAuthor)
	require.NoError(t, err)
	assert.True(t, seen)

	// By-author with no id is trivially true
	seen, err = s.Has("hook", "", "", ModeByAuthor)
	require.NoError(t, err)
	assert.True(t, seen)

	// A different webhook has seen nothing
	seen, err = s.Has("other", "", "/nasa/status/789", ModeByAuthor)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestAccountExistenceProbe(t *testing.T) {
	s := newTestStore(t)

	seen, err := s.Has("hook", "nasa", "", ModeByAccount)
	require.NoError(t, err)
	assert.False(t, seen, "account with no history entry is a first run")

	require.NoError(t, s.Add("hook", "nasa", ""))

	seen, err = s.Has("hook", "nasa", "", ModeByAccount)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestCorruptFileIsLoudError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := NewStore(path)

	_, err := s.Has("hook", "nasa", "", ModeByAccount)
	assert.Error(t, err)

	err = s.Add("hook", "nasa", "/nasa/status/1")
	assert.Error(t, err)

	// The corrupt file must survive untouched
	contents, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "{not json", string(contents))
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeByAccount, mode)

	mode, err = ParseMode("by-author")
	require.NoError(t, err)
	assert.Equal(t, ModeByAuthor, mode)

	_, err = ParseMode("per_user")
	assert.Error(t, err)
}
