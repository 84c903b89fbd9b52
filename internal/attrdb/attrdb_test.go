package attrdb

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTable struct {
	names []string
	rows  [][]string
	dead  map[int]bool
}

func (m *memTable) Names() []string { return m.names }
func (m *memTable) Len() int         { return len(m.rows) }
func (m *memTable) Row(i int) ([]string, bool) {
	return m.rows[i], !m.dead[i]
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "attrs.db"))
	if err != nil && strings.Contains(err.Error(), "CGO_ENABLED") {
		t.Skip("sqlite3 driver needs cgo")
	}
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestImportAndLookup(t *testing.T) {
	s := openStore(t)
	tbl := &memTable{
		names: []string{"NAME", "POP"},
		rows:  [][]string{{"Oslo", "700000"}, {"gone", "0"}, {"Bergen", "285000"}},
		dead:  map[int]bool{1: true},
	}
	require.NoError(t, s.Import("cities", tbl))

	layers, err := s.Layers()
	require.NoError(t, err)
	assert.Equal(t, []string{"cities"}, layers)

	src, err := s.Source("cities")
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, []string{"NAME", "POP"}, src.Fields)

	v, ok := src.Value(3, "name")
	require.True(t, ok)
	assert.Equal(t, "Bergen", v)

	_, ok = src.Value(2, "NAME")
	assert.False(t, ok)
	_, ok = src.Value(1, "AREA")
	assert.False(t, ok)
}

func TestImportReplaces(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Import("l", &memTable{names: []string{"A"}, rows: [][]string{{"1"}, {"2"}}}))
	require.NoError(t, s.Import("l", &memTable{names: []string{"B"}, rows: [][]string{{"x"}}}))

	src, err := s.Source("l")
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, []string{"B"}, src.Fields)
	_, ok := src.Value(1, "A")
	assert.False(t, ok)
	_, ok = src.Value(2, "B")
	assert.False(t, ok)
}

func TestUnknownLayer(t *testing.T) {
	s := openStore(t)
	_, err := s.Source("missing")
	assert.ErrorIs(t, err, ErrNoLayer)
}
