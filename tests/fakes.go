package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/trezcool/lophoc/core"
)

// EventRecorder is a core.EventPublisher that keeps the published events.
type EventRecorder struct {
	mu     sync.Mutex
	events []core.Event
}

func (r *EventRecorder) Publish(_ context.Context, ev core.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Types returns the types of the published events, in order.
func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		types = append(types, ev.Type)
	}
	return types
}

// Last returns the last event of type typ.
func (r *EventRecorder) Last(typ string) (core.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == typ {
			return r.events[i], true
		}
	}
	return core.Event{}, false
}

// MemoryStorage is a core.FileStorage keeping the files in memory.
type MemoryStorage struct {
	baseURL string
	mu      sync.Mutex
	files   map[string][]byte
}

var _ core.FileStorage = (*MemoryStorage)(nil)

func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{baseURL: baseURL, files: make(map[string][]byte)}
}

func (s *MemoryStorage) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = buf.Bytes()
	return nil
}

func (s *MemoryStorage) URL(_ context.Context, name string) (string, error) {
	return s.baseURL + "/uploads/" + name, nil
}

func (s *MemoryStorage) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, name)
	return nil
}

// Content returns the content of the stored file `name`.
func (s *MemoryStorage) Content(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[name]
	return b, ok
}
