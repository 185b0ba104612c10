package history

import (
	"encoding/json"
	"fmt"
)

// EntryAdded is emitted when an evaluation is recorded.
type EntryAdded struct {
	ID    ID
	Entry Entry
}

// EntryRemoved is emitted when a single entry is deleted.
type EntryRemoved struct {
	ID ID
}

// Cleared is emitted when all entries are deleted.
type Cleared struct{}

// IOError reports a failure to read or write the events file.
// It is never written to the file.
type IOError struct {
	Err error
}

// Event is a change of the history.
type Event interface {
	evType() string
}

func (*EntryAdded) evType() string   { return "add" }
func (*EntryRemoved) evType() string { return "remove" }
func (*Cleared) evType() string      { return "clear" }
func (*IOError) evType() string      { return "ioerror" }

type jsonEvent struct {
	Type  string `json:"type"`
	Event Event  `json:"event"`
}

func writeEvent(enc *json.Encoder, ev Event) error {
	return enc.Encode(&jsonEvent{Type: ev.evType(), Event: ev})
}

func readEvent(dec *json.Decoder) (Event, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok != json.Delim('{') {
		return nil, fmt.Errorf("unexpected JSON token %v, expected '{'", tok)
	}

	var (
		evtype = ""
		event  Event
	)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		switch key {
		case "type":
			if evtype, err = readEventType(dec); err != nil {
				return nil, err
			}
		case "event":
			if evtype == "" {
				return nil, fmt.Errorf("key \"type\" must precede \"event\"")
			}
			if event, err = makeEvent(evtype); err != nil {
				return nil, err
			}
			if err := dec.Decode(event); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown key %q", keyTok)
		}
	}
	if event == nil {
		return nil, fmt.Errorf("event of type %q has no body", evtype)
	}

	// read '}'
	_, err = dec.Token()
	return event, err
}

func readEventType(dec *json.Decoder) (string, error) {
	typeTok, err := dec.Token()
	if err != nil {
		return "", err
	}
	typ, ok := typeTok.(string)
	if !ok {
		return "", fmt.Errorf("expected string for \"type\", got %v", typeTok)
	}
	return typ, nil
}

func makeEvent(evtype string) (Event, error) {
	switch evtype {
	case (&EntryAdded{}).evType():
		return new(EntryAdded), nil
	case (&EntryRemoved{}).evType():
		return new(EntryRemoved), nil
	case (&Cleared{}).evType():
		return new(Cleared), nil
	default:
		return nil, fmt.Errorf("unknown event type %q", evtype)
	}
}
