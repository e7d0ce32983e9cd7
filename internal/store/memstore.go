package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemStore is an in-memory Store for tests and single-node dev setups.
type MemStore struct {
	mu   sync.RWMutex
	docs map[string]*Astronaut
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string]*Astronaut)}
}

// clone deep-copies a document through JSON so callers can never alias the
// stored state.
func clone(a *Astronaut) *Astronaut {
	data, err := json.Marshal(a)
	if err != nil {
		panic(fmt.Sprintf("store: clone marshal: %v", err))
	}
	var out Astronaut
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("store: clone unmarshal: %v", err))
	}
	out.normalize()
	return &out
}

// update loads the named document, applies mutate, and stores the result.
func (s *MemStore) update(name string, mutate func(*Astronaut) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[name]
	if !ok {
		return fmt.Errorf("store: astronaut %q: %w", name, ErrNotFound)
	}
	working := clone(doc)
	if err := mutate(working); err != nil {
		return err
	}
	s.docs[name] = working
	return nil
}

// Create implements Store.
func (s *MemStore) Create(_ context.Context, a *Astronaut) error {
	if a.Name == "" {
		return fmt.Errorf("store: astronaut name must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[a.Name]; ok {
		return fmt.Errorf("store: astronaut %q: %w", a.Name, ErrExists)
	}
	s.docs[a.Name] = clone(a)
	return nil
}

// Get implements Store.
func (s *MemStore) Get(_ context.Context, name string) (*Astronaut, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[name]
	if !ok {
		return nil, fmt.Errorf("store: astronaut %q: %w", name, ErrNotFound)
	}
	return clone(doc), nil
}

// List implements Store.
func (s *MemStore) List(_ context.Context) ([]Astronaut, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Astronaut, 0, len(names))
	for _, name := range names {
		out = append(out, *clone(s.docs[name]))
	}
	return out, nil
}

// SetPhoto implements Store.
func (s *MemStore) SetPhoto(_ context.Context, name, photoURL string) error {
	return s.update(name, func(a *Astronaut) error {
		a.PhotoURL = photoURL
		return nil
	})
}

// AddSymptomLog implements Store.
func (s *MemStore) AddSymptomLog(_ context.Context, name string, l SymptomLog) (SymptomLog, error) {
	err := s.update(name, func(a *Astronaut) error {
		addSymptomLog(a, &l)
		return nil
	})
	return l, err
}

// AttachSymptomMedia implements Store.
func (s *MemStore) AttachSymptomMedia(_ context.Context, name, logID, mediaType, dataURL string) error {
	return s.update(name, func(a *Astronaut) error {
		return attachSymptomMedia(a, logID, mediaType, dataURL)
	})
}

// AddCaptainLog implements Store.
func (s *MemStore) AddCaptainLog(_ context.Context, name string, l CaptainLog) (CaptainLog, error) {
	err := s.update(name, func(a *Astronaut) error {
		addCaptainLog(a, &l)
		return nil
	})
	return l, err
}

// UpsertCheckIn implements Store.
func (s *MemStore) UpsertCheckIn(_ context.Context, name string, c DailyCheckIn) error {
	return s.update(name, func(a *Astronaut) error {
		upsertCheckIn(a, c)
		return nil
	})
}

// ReplaceTasks implements Store.
func (s *MemStore) ReplaceTasks(_ context.Context, name string, tasks []MissionTask) error {
	return s.update(name, func(a *Astronaut) error {
		a.MissionTasks = append([]MissionTask{}, tasks...)
		return nil
	})
}

// AddTask implements Store.
func (s *MemStore) AddTask(_ context.Context, name string, t MissionTask) (MissionTask, error) {
	err := s.update(name, func(a *Astronaut) error {
		addTask(a, &t)
		return nil
	})
	return t, err
}

// AddEarthlinkMessage implements Store.
func (s *MemStore) AddEarthlinkMessage(_ context.Context, name string, m EarthlinkMessage) (EarthlinkMessage, error) {
	err := s.update(name, func(a *Astronaut) error {
		addEarthlinkMessage(a, &m)
		return nil
	})
	return m, err
}

// MarkEarthlinkViewed implements Store.
func (s *MemStore) MarkEarthlinkViewed(_ context.Context, name, messageID string) error {
	return s.update(name, func(a *Astronaut) error {
		return markEarthlinkViewed(a, messageID)
	})
}

// AddDoctorAdvice implements Store.
func (s *MemStore) AddDoctorAdvice(_ context.Context, name string, d DoctorAdvice) (DoctorAdvice, error) {
	err := s.update(name, func(a *Astronaut) error {
		addDoctorAdvice(a, &d)
		return nil
	})
	return d, err
}

// AddProcedure implements Store.
func (s *MemStore) AddProcedure(_ context.Context, name string, p MissionProcedure) (MissionProcedure, error) {
	err := s.update(name, func(a *Astronaut) error {
		addProcedure(a, &p)
		return nil
	})
	return p, err
}

// AddMassProtocol implements Store.
func (s *MemStore) AddMassProtocol(_ context.Context, name string, p MassProtocol) (MassProtocol, error) {
	err := s.update(name, func(a *Astronaut) error {
		addMassProtocol(a, &p)
		return nil
	})
	return p, err
}
