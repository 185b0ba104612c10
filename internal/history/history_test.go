package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextEvent(t *testing.T, s *Store) Event {
	t.Helper()
	select {
	case ev := <-s.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for history event")
		return nil
	}
}

func TestStoreAddReplay(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)
	id := s.Add(Entry{Expression: "2+3", Result: "5"})

	ev := nextEvent(t, s)
	added, ok := ev.(*EntryAdded)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, id, added.ID)
	assert.Equal(t, "5", added.Entry.Result)
	assert.False(t, added.Entry.Time.IsZero())
	s.Close()

	// A new store replays the file.
	s = NewStore(dir, nil)
	defer s.Close()
	ev = nextEvent(t, s)
	added, ok = ev.(*EntryAdded)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, id, added.ID)
	assert.Equal(t, "2+3", added.Entry.Expression)
}

func TestStoreCloseWritesPending(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)
	first := s.Add(Entry{Expression: "1÷0", Error: "division by zero"})
	second := s.Add(Entry{Expression: "1+1", Result: "2"})
	s.Add(Entry{Expression: "2+2", Result: "4"})
	s.Remove(second)
	s.Close()

	records, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first, records[0].ID)
	assert.True(t, records[0].Entry.Failed())
	assert.Equal(t, "4", records[1].Entry.Result)
}

func TestStoreClearTruncates(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)
	for i := 0; i < 10; i++ {
		s.Add(Entry{Expression: "1+1", Result: "2"})
	}
	s.Clear()
	s.Add(Entry{Expression: "3×3", Result: "9"})
	s.Close()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"type":"clear"`)

	records, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "9", records[0].Entry.Result)
}

func TestStoreIOError(t *testing.T) {
	// The history directory cannot be created below a regular file.
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	s := NewStore(filepath.Join(file, "history"), nil)
	ev := nextEvent(t, s)
	ioerr, ok := ev.(*IOError)
	require.True(t, ok, "got %T", ev)
	assert.Error(t, ioerr.Err)

	// Close reports the failure even if nobody reads the events.
	s2 := NewStore(filepath.Join(file, "history"), nil)
	s2.Clear()
	assert.Error(t, s2.Close())
	assert.Error(t, s.Close())
}

func TestStoreCloseNoError(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	s.Add(Entry{Expression: "1+1", Result: "2"})
	assert.NoError(t, s.Close())
}

func TestStoreDropsTornRecord(t *testing.T) {
	dir := t.TempDir()
	content := `{"type":"add","event":{"ID":"a","Entry":{"expression":"1","result":"1","time":"2024-01-02T03:04:05Z"}}}
{"type":"add","event":{"ID":"b","En`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))

	// Entries added after the damage must survive later sessions.
	for _, expr := range []string{"2+2", "3+3"} {
		s := NewStore(dir, nil)
		s.Add(Entry{Expression: expr, Result: "x"})
		require.NoError(t, s.Close())
	}

	records, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, ID("a"), records[0].ID)
	assert.Equal(t, "2+2", records[1].Entry.Expression)
	assert.Equal(t, "3+3", records[2].Entry.Expression)

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"ID":"b"`)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 3)
}

func TestStoreTornFirstRecord(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{"type":"add",`), 0644))

	s := NewStore(dir, nil)
	s.Add(Entry{Expression: "2+2", Result: "4"})
	require.NoError(t, s.Close())

	records, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "4", records[0].Entry.Result)
}

func TestLoadMissing(t *testing.T) {
	records, err := Load(filepath.Join(t.TempDir(), "nothing"))
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadDamaged(t *testing.T) {
	dir := t.TempDir()
	content := `{"type":"add","event":{"ID":"a","Entry":{"expression":"1","result":"1","time":"2024-01-02T03:04:05Z"}}}
{"type":"bogus","event":{}}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))

	records, err := Load(dir)
	assert.Error(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ID("a"), records[0].ID)
	assert.Equal(t, 2024, records[0].Entry.Time.Year())
}

func TestFold(t *testing.T) {
	var records []Record
	records = Fold(records, &EntryAdded{ID: "a"})
	records = Fold(records, &EntryAdded{ID: "b"})
	records = Fold(records, &EntryAdded{ID: "c"})
	before := records
	records = Fold(records, &EntryRemoved{ID: "b"})
	require.Len(t, records, 2)
	assert.Equal(t, ID("b"), before[1].ID, "Fold modified its input")
	assert.Equal(t, ID("a"), records[0].ID)
	assert.Equal(t, ID("c"), records[1].ID)

	records = Fold(records, &IOError{})
	assert.Len(t, records, 2)
	records = Fold(records, &Cleared{})
	assert.Empty(t, records)
}

func TestTail(t *testing.T) {
	records := []Record{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	assert.Len(t, Tail(records, 0), 3)
	assert.Len(t, Tail(records, 5), 3)
	tail := Tail(records, 2)
	require.Len(t, tail, 2)
	assert.Equal(t, ID("b"), tail[0].ID)
}
