// Package memory is an in-process storage backend for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"finanse/internal/core"
	"finanse/internal/storage"
)

type entry struct {
	id  string
	doc core.Document
}

type Store struct {
	mu      sync.Mutex
	docs    map[string][]entry // owner + "/" + collection, insertion order
	users   map[string]core.User
	byEmail map[string]string
	failing error
}

func New() *Store {
	return &Store{
		docs:    make(map[string][]entry),
		users:   make(map[string]core.User),
		byEmail: make(map[string]string),
	}
}

// FailWith makes every document operation return err until called with nil.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	s.failing = err
	s.mu.Unlock()
}

func bucket(owner, collection string) string {
	return owner + "/" + collection
}

func (s *Store) Put(_ context.Context, owner, collection, id string, doc core.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing != nil {
		return s.failing
	}
	key := bucket(owner, collection)
	for i, e := range s.docs[key] {
		if e.id == id {
			s.docs[key][i].doc = clone(doc)
			return nil
		}
	}
	s.docs[key] = append(s.docs[key], entry{id: id, doc: clone(doc)})
	return nil
}

func (s *Store) Get(_ context.Context, owner, collection, id string) (core.Document, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing != nil {
		return nil, false, s.failing
	}
	for _, e := range s.docs[bucket(owner, collection)] {
		if e.id == id {
			return clone(e.doc), true, nil
		}
	}
	return nil, false, nil
}

func (s *Store) List(_ context.Context, owner, collection string) ([]core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing != nil {
		return nil, s.failing
	}
	entries := s.docs[bucket(owner, collection)]
	out := make([]core.Document, 0, len(entries))
	for _, e := range entries {
		out = append(out, clone(e.doc))
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, owner, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing != nil {
		return s.failing
	}
	key := bucket(owner, collection)
	entries := s.docs[key]
	for i, e := range entries {
		if e.id == id {
			s.docs[key] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, taken := s.byEmail[email]; taken {
		return storage.ErrEmailTaken
	}
	u.Email = email
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) UserByID(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.users[u.ID]
	if !ok {
		return fmt.Errorf("user %s: %w", u.ID, core.ErrNotFound)
	}
	u.Email = old.Email
	u.CreatedAt = old.CreatedAt
	s.users[u.ID] = u
	return nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failing
}

func (s *Store) Close() error { return nil }

func clone(doc core.Document) core.Document {
	out := make(core.Document, len(doc))
	for k, v := range doc {
		if m, ok := v.(map[string]any); ok {
			v = map[string]any(clone(m))
		}
		out[k] = v
	}
	return out
}

var _ storage.Backend = (*Store)(nil)
