package records

import (
	"fmt"
	"sync"
	"time"

	"social-insight/internal/analyzer"
)

// EventType names a store change.
type EventType string

const (
	EventAdded   EventType = "added"
	EventUpdated EventType = "updated"
	EventRemoved EventType = "removed"
)

// Event describes one store mutation. Records holds the prepended batch for EventAdded and the
// single affected record otherwise. Index is the position of that record before removal.
type Event struct {
	Seq     uint64    `json:"seq"`
	Type    EventType `json:"type"`
	Records []Record  `json:"records"`
	Index   int       `json:"index"`
}

// Store holds the ordered record sequence, newest batch first. Every mutation is a single
// read-modify-write under the lock, so readers never see a partially applied batch.
type Store struct {
	mu      sync.RWMutex
	records []Record
	seq     uint64
	subs    map[int]chan Event
	nextSub int
	now     func() time.Time
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		subs: make(map[int]chan Event),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Prepend places a batch of pending placeholders in front of the existing records in one update.
func (s *Store) Prepend(batch []Record) error {
	for _, r := range batch {
		if r.Status != StatusPending {
			return fmt.Errorf("record %s: %w", r.ID, ErrNotPlaceholder)
		}
	}
	if len(batch) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Record, 0, len(batch)+len(s.records))
	next = append(next, batch...)
	next = append(next, s.records...)
	s.records = next

	s.publishLocked(EventAdded, append([]Record(nil), batch...), 0)
	return nil
}

// MarkLoading moves a pending record to loading. Only one record may be loading at a time.
func (s *Store) MarkLoading(id string) (Record, error) {
	return s.transition(id, StatusLoading, func(r *Record) {})
}

// Complete merges analysis fields into a loading record and marks it completed.
func (s *Store) Complete(id string, fields analyzer.Fields) (Record, error) {
	return s.transition(id, StatusCompleted, func(r *Record) {
		r.merge(fields)
		r.ErrorMessage = ""
	})
}

// Fail marks a loading record as errored with message.
func (s *Store) Fail(id string, message string) (Record, error) {
	if message == "" {
		message = FailedMessage
	}
	return s.transition(id, StatusError, func(r *Record) {
		r.ErrorMessage = message
	})
}

func (s *Store) transition(id string, to Status, apply func(*Record)) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return Record{}, ErrNotFound
	}
	rec := s.records[idx]
	if !canTransition(rec.Status, to) {
		return rec, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, rec.Status, to)
	}
	if to == StatusLoading {
		for i := range s.records {
			if s.records[i].Status == StatusLoading {
				return rec, ErrAnotherLoading
			}
		}
	}

	apply(&rec)
	rec.Status = to
	rec.UpdatedAt = s.now()
	s.records[idx] = rec

	s.publishLocked(EventUpdated, []Record{rec}, idx)
	return rec, nil
}

// Remove deletes the record at index, keeping the relative order of the rest. Any status may
// be removed. Out-of-range indexes leave the store untouched.
func (s *Store) Remove(index int) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.records) {
		return Record{}, ErrIndexOutOfRange
	}
	removed := s.records[index]
	next := make([]Record, 0, len(s.records)-1)
	next = append(next, s.records[:index]...)
	next = append(next, s.records[index+1:]...)
	s.records = next

	s.publishLocked(EventRemoved, []Record{removed}, index)
	return removed, nil
}

// Snapshot returns a copy of the ordered records.
func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.records...)
}

// SnapshotWithSeq returns the records together with the sequence number of the last event
// they reflect.
func (s *Store) SnapshotWithSeq() ([]Record, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.records...), s.seq
}

// Completed returns completed records in store order.
func (s *Store) Completed() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if r.Status == StatusCompleted {
			out = append(out, r)
		}
	}
	return out
}

// Counts tallies records per status.
func (s *Store) Counts() map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[Status]int{
		StatusPending:   0,
		StatusLoading:   0,
		StatusCompleted: 0,
		StatusError:     0,
	}
	for _, r := range s.records {
		out[r.Status]++
	}
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Subscribe registers for change events. Delivery never blocks the store: when the buffer is
// full the event is dropped, and the subscriber can resynchronise from Snapshot. The returned
// cancel func closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) indexLocked(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) publishLocked(typ EventType, recs []Record, index int) {
	s.seq++
	ev := Event{Seq: s.seq, Type: typ, Records: recs, Index: index}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
