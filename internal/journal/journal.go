// SPDX-License-Identifier: MIT
/*
Package journal persists section closures and force strikes to an embedded
badger store so a show can be reviewed afterwards.

Keys are "<session>/<track>/<kind>/<timestamp>" with the track as 4 and the
stream timestamp as 8 big-endian bytes, so a prefix scan returns one kind of
one track in time order. Values are gob-encoded Events.
*/
package journal

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"slices"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"luxsync/internal/memory"
	"luxsync/internal/pipeline"
	"luxsync/internal/section"
	"luxsync/internal/transport"
)

// Kind distinguishes journal entries.
type Kind string

const (
	KindSection Kind = "section"
	KindStrike  Kind = "strike"
)

// ErrClosed is returned when using a closed journal.
var ErrClosed = errors.New("journal: closed")

// Strike records one drop bridge activation.
type Strike struct {
	Intensity float64
	ZScore    float64
	Energy    float64
	Section   section.Label
	Reason    string
}

// Event is one journal entry. Exactly one of Section and Strike is set.
type Event struct {
	Session   string
	Track     int
	Kind      Kind
	Timestamp time.Duration
	Section   *memory.SectionHistoryEntry
	Strike    *Strike
}

// Options configures the store.
type Options struct {
	Dir      string
	InMemory bool
}

// Journal is a transport that writes notable snapshots to badger.
type Journal struct {
	db *badger.DB
}

// Open opens or creates the store.
func Open(opts Options) (*Journal, error) {
	bopts := badger.DefaultOptions(opts.Dir).
		WithInMemory(opts.InMemory).
		WithLogger(badgerLogger{})
	if opts.InMemory {
		bopts = bopts.WithDir("").WithValueDir("")
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("journal: open %q: %w", opts.Dir, err)
	}
	return &Journal{db: db}, nil
}

// Key builds the storage key for an event. The track is part of the key
// because stream timestamps restart on every pipeline reset.
func Key(session string, track int, kind Kind, ts time.Duration) []byte {
	k := make([]byte, 0, len(session)+len(kind)+3+4+8)
	k = append(k, session...)
	k = append(k, '/')
	k = binary.BigEndian.AppendUint32(k, uint32(track))
	k = append(k, '/')
	k = append(k, kind...)
	k = append(k, '/')
	return binary.BigEndian.AppendUint64(k, uint64(ts))
}

// Append stores ev.
func (j *Journal) Append(ev Event) error {
	if j.db == nil {
		return ErrClosed
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ev); err != nil {
		return fmt.Errorf("journal: encode: %w", err)
	}
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(Key(ev.Session, ev.Track, ev.Kind, ev.Timestamp), buf.Bytes())
	})
}

// Send journals the snapshot's closed section and force strike, if any.
func (j *Journal) Send(snap pipeline.Snapshot) error {
	if c := snap.Memory.ClosedSection; c != nil {
		entry := *c
		if err := j.Append(Event{
			Session:   snap.SessionID,
			Track:     snap.Track,
			Kind:      KindSection,
			Timestamp: snap.Frame.Timestamp,
			Section:   &entry,
		}); err != nil {
			return err
		}
	}
	if snap.Bridge.ShouldForceStrike {
		return j.Append(Event{
			Session:   snap.SessionID,
			Track:     snap.Track,
			Kind:      KindStrike,
			Timestamp: snap.Frame.Timestamp,
			Strike: &Strike{
				Intensity: snap.Bridge.Intensity,
				ZScore:    snap.Memory.Energy.ZScore,
				Energy:    snap.Energy.Absolute,
				Section:   snap.Frame.Section,
				Reason:    snap.Bridge.Reason,
			},
		})
	}
	return nil
}

// List returns the events of session, or of every session when empty,
// ordered by session, track and timestamp.
func (j *Journal) List(session string) ([]Event, error) {
	if j.db == nil {
		return nil, ErrClosed
	}
	var prefix []byte
	if session != "" {
		prefix = append([]byte(session), '/')
	}

	var events []Event
	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var ev Event
			err := it.Item().Value(func(val []byte) error {
				return gob.NewDecoder(bytes.NewReader(val)).Decode(&ev)
			})
			if err != nil {
				return fmt.Errorf("journal: decode %q: %w", it.Item().Key(), err)
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(events, func(a, b Event) int {
		return cmp.Or(
			cmp.Compare(a.Session, b.Session),
			cmp.Compare(a.Track, b.Track),
			cmp.Compare(a.Timestamp, b.Timestamp),
		)
	})
	return events, nil
}

// Close flushes and closes the store. It is idempotent.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

var _ transport.Transport = (*Journal)(nil)
