package main

import (
	"gioui.org/widget"

	"github.com/fjl/decicalc/internal/history"
)

type historyItem struct {
	id    history.ID
	entry history.Entry

	// UI state.
	click  widget.Clickable
	remove widget.Clickable
}

// historyModel is the app's view of the history store.
type historyModel struct {
	store     *history.Store
	items     []*historyItem
	limit     int
	lastError error
}

func newHistoryModel(store *history.Store, limit int) *historyModel {
	return &historyModel{store: store, limit: limit}
}

func (m *historyModel) handleStoreEvent(e history.Event) {
	switch e := e.(type) {
	case *history.EntryAdded:
		m.items = append(m.items, &historyItem{id: e.ID, entry: e.Entry})
		if m.limit > 0 && len(m.items) > m.limit {
			m.items = m.items[len(m.items)-m.limit:]
		}
		m.lastError = nil

	case *history.EntryRemoved:
		for i, it := range m.items {
			if it.id == e.ID {
				m.items = append(m.items[:i], m.items[i+1:]...)
				break
			}
		}

	case *history.Cleared:
		m.items = nil

	case *history.IOError:
		m.lastError = e.Err
	}
}

// record stores an evaluation. Failed evaluations are not kept.
func (m *historyModel) record(expr, result string, err error) {
	if err != nil || m.store == nil {
		return
	}
	m.store.Add(history.Entry{Expression: expr, Result: result})
}

// remove deletes an entry. The item disappears when the store confirms it.
func (m *historyModel) remove(id history.ID) {
	if m.store != nil {
		m.store.Remove(id)
	}
}

func (m *historyModel) clear() {
	if m.store != nil {
		m.store.Clear()
	}
}
