// Package history keeps a persistent log of evaluated expressions.
//
// Changes are stored as a sequence of JSON events in a single file. A Store applies
// changes in a background goroutine and reports every applied change on its event
// channel, starting with a replay of the file contents.
package history

import (
	"bytes"
	"container/list"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileName is the name of the events file within the history directory.
const FileName = "events.json"

type ID string

func newID() ID {
	return ID(uuid.NewString())
}

// Entry is one evaluation.
// Exactly one of Result and Error is set.
type Entry struct {
	Expression string    `json:"expression"`
	Result     string    `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	Time       time.Time `json:"time"`
}

// Failed reports whether the evaluation failed.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Record is an entry together with its ID.
type Record struct {
	ID    ID
	Entry Entry
}

type Store struct {
	dataDir  string
	dataFile *os.File
	reader   *json.Decoder
	writer   *json.Encoder
	log      *slog.Logger

	eventsOut  chan Event
	eventQueue list.List

	eventsIn chan Event
	flushCh  chan struct{}
	quitCh   chan struct{}
	wg       sync.WaitGroup

	err error // last I/O error, owned by mainLoop
}

// NewStore opens the history in datadir. The directory is created when the first
// change is written. log may be nil.
func NewStore(datadir string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Store{
		dataDir:   datadir,
		log:       log.With("component", "history"),
		eventsOut: make(chan Event),
		eventsIn:  make(chan Event, 256),
		flushCh:   make(chan struct{}, 1),
		quitCh:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.mainLoop()
	return s
}

// Close closes the store. Changes submitted before Close are written
// before the file is closed. It returns the last I/O error of the store,
// which is also reported as an IOError event.
func (s *Store) Close() error {
	close(s.quitCh)
	s.wg.Wait()
	return s.err
}

// Events returns the event channel.
// The app reads this channel and applies the events to its view of the history.
func (s *Store) Events() <-chan Event {
	return s.eventsOut
}

// Add records an evaluation. A zero Time is set to the current time.
func (s *Store) Add(entry Entry) ID {
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}
	id := newID()
	s.enqueueInputEvent(&EntryAdded{ID: id, Entry: entry})
	return id
}

// Remove deletes an entry.
func (s *Store) Remove(id ID) {
	s.enqueueInputEvent(&EntryRemoved{ID: id})
}

// Clear deletes all entries.
func (s *Store) Clear() {
	s.enqueueInputEvent(&Cleared{})
}

// Persist tells the store to flush data to disk.
func (s *Store) Persist() {
	select {
	case s.flushCh <- struct{}{}:
	default:
	}
}

// enqueueInputEvent delivers an event from the app to mainLoop.
func (s *Store) enqueueInputEvent(ev Event) {
	select {
	case s.eventsIn <- ev:
	case <-s.quitCh:
	}
}

func (s *Store) mainLoop() {
	defer s.wg.Done()

	// Initial replay.
	if err := s.initFile(); err != nil {
		s.ioError(err)
	}

	for {
		sendEvChan, sendEv := s.queuedOutputEvent()
		select {
		case sendEvChan <- sendEv:
			s.popOutputEvent()

		case ev := <-s.eventsIn:
			s.apply(ev)

		case <-s.flushCh:
			if s.dataFile != nil {
				err := s.dataFile.Sync()
				s.log.Debug("history file flushed", "err", err)
				if err != nil {
					s.ioError(err)
				}
			}

		case <-s.quitCh:
			s.drainInput()
			if s.dataFile != nil {
				err := s.dataFile.Close()
				s.log.Debug("history file closed", "err", err)
				if err != nil {
					s.err = err
				}
			}
			return
		}
	}
}

func (s *Store) apply(ev Event) {
	if err := s.writeEvent(ev); err != nil {
		s.log.Error("history write failed", "event", ev.evType(), "err", err)
		s.ioError(err)
	} else {
		s.enqueueOutputEvent(ev)
	}
}

// drainInput writes changes that were submitted but not yet processed.
func (s *Store) drainInput() {
	for {
		select {
		case ev := <-s.eventsIn:
			s.apply(ev)
		default:
			return
		}
	}
}

func (s *Store) ioError(err error) {
	s.err = err
	s.enqueueOutputEvent(&IOError{Err: err})
}

func (s *Store) enqueueOutputEvent(ev Event) {
	s.eventQueue.PushBack(ev)
}

func (s *Store) queuedOutputEvent() (chan Event, Event) {
	first := s.eventQueue.Front()
	if first == nil {
		return nil, nil
	}
	return s.eventsOut, first.Value.(Event)
}

func (s *Store) popOutputEvent() {
	s.eventQueue.Remove(s.eventQueue.Front())
}

func (s *Store) writeEvent(ev Event) error {
	if err := s.initFile(); err != nil {
		return err
	}
	if _, ok := ev.(*Cleared); ok {
		// Nothing before a clear is needed for replay.
		if err := s.dataFile.Truncate(0); err != nil {
			return err
		}
		if _, err := s.dataFile.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}
	return writeEvent(s.writer, ev)
}

func (s *Store) initFile() error {
	if s.dataFile != nil {
		return nil // already open
	}

	if err := os.MkdirAll(s.dataDir, 0700); err != nil {
		return err
	}
	filename := filepath.Join(s.dataDir, FileName)
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	s.log.Info("history file opened", "file", filename)
	s.dataFile = f
	s.reader = json.NewDecoder(f)
	s.writer = json.NewEncoder(f)
	return s.replay()
}

// replay loads events from the data file and sends them.
func (s *Store) replay() error {
	var (
		count int
		good  int64 // end of the last complete event
	)
	for {
		ev, err := readEvent(s.reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			s.log.Warn("history decode error", "offset", good, "err", err)
			break
		}
		good = s.reader.InputOffset()
		count++
		s.enqueueOutputEvent(ev)
	}
	s.log.Debug("history replay done", "events", count)
	return s.dropDamagedTail(good)
}

// dropDamagedTail truncates the file after the last complete event if anything but
// whitespace follows it, e.g. a record torn by a crash. New events are written after it.
func (s *Store) dropDamagedTail(good int64) error {
	info, err := s.dataFile.Stat()
	if err != nil {
		return err
	}
	if size := info.Size(); size > good {
		rest := make([]byte, size-good)
		if _, err := s.dataFile.ReadAt(rest, good); err != nil {
			return err
		}
		if len(bytes.TrimSpace(rest)) > 0 {
			s.log.Warn("dropping damaged history tail", "offset", good, "bytes", len(rest))
			if err := s.dataFile.Truncate(good); err != nil {
				return err
			}
			if good > 0 {
				if _, err := s.dataFile.WriteAt([]byte("\n"), good); err != nil {
					return err
				}
			}
		}
	}
	_, err = s.dataFile.Seek(0, io.SeekEnd)
	return err
}

// Load reads the history in datadir without starting a Store.
// A missing history is empty. If the file is damaged, the records read up
// to the damage are returned along with the error.
func Load(datadir string) ([]Record, error) {
	f, err := os.Open(filepath.Join(datadir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		dec     = json.NewDecoder(f)
		records []Record
	)
	for {
		ev, err := readEvent(dec)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("history %s: %w", f.Name(), err)
		}
		records = Fold(records, ev)
	}
}

// Fold applies ev to records and returns the updated list.
// Removal allocates a new slice and leaves records untouched.
func Fold(records []Record, ev Event) []Record {
	switch ev := ev.(type) {
	case *EntryAdded:
		return append(records, Record{ID: ev.ID, Entry: ev.Entry})
	case *EntryRemoved:
		out := make([]Record, 0, len(records))
		for _, r := range records {
			if r.ID != ev.ID {
				out = append(out, r)
			}
		}
		return out
	case *Cleared:
		return nil
	default:
		return records
	}
}

// Tail returns the last n records, or all of them if n <= 0.
func Tail(records []Record, n int) []Record {
	if n <= 0 || n >= len(records) {
		return records
	}
	return records[len(records)-n:]
}
