package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a thread-safe store used when a database is not configured.
type MemoryStore struct {
	mu         sync.RWMutex
	users      []User
	renderings []Rendering
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: []User{}, renderings: []Rendering{}}
}

// CreateUser appends an account, failing on a duplicate email.
func (s *MemoryStore) CreateUser(_ context.Context, input User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == input.Email {
			return User{}, ErrUserExists
		}
	}
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	if input.CreatedAt.IsZero() {
		input.CreatedAt = time.Now().UTC()
	}
	s.users = append(s.users, input)
	return input, nil
}

// GetUserByEmail returns the account registered under email.
func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// GetUserByID returns an account by id.
func (s *MemoryStore) GetUserByID(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// ListUsers returns a snapshot of every account, newest first.
func (s *MemoryStore) ListUsers(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]User, len(s.users))
	copy(snapshot, s.users)
	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].CreatedAt.After(snapshot[j].CreatedAt)
	})
	return snapshot, nil
}

// DeleteUser removes an account, leaving its renderings in place.
func (s *MemoryStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for idx, u := range s.users {
		if u.ID == id {
			s.users = append(s.users[:idx], s.users[idx+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// CreateRendering validates and prepends a rendering.
func (s *MemoryStore) CreateRendering(_ context.Context, input Rendering) (Rendering, error) {
	if err := validateRendering(input); err != nil {
		return Rendering{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	if input.CreatedAt.IsZero() {
		input.CreatedAt = time.Now().UTC()
	}
	if input.Options == nil {
		input.Options = map[string]string{}
	}
	s.renderings = append([]Rendering{input}, s.renderings...)
	return input, nil
}

// ListRenderings returns the scoped renderings, newest first.
func (s *MemoryStore) ListRenderings(_ context.Context, scope Scope) ([]Rendering, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []Rendering{}
	for _, r := range s.renderings {
		if scope.Admits(r) {
			items = append(items, r)
		}
	}
	return items, nil
}

// ListByIDs returns the scoped subset of the requested ids, newest first.
func (s *MemoryStore) ListByIDs(_ context.Context, scope Scope, ids []string) ([]Rendering, error) {
	wanted := idSet(ids)

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []Rendering{}
	for _, r := range s.renderings {
		if wanted[r.ID] && scope.Admits(r) {
			items = append(items, r)
		}
	}
	return items, nil
}

// GetRendering fetches one rendering if the scope admits it.
func (s *MemoryStore) GetRendering(_ context.Context, scope Scope, id string) (Rendering, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.renderings {
		if r.ID == id && scope.Admits(r) {
			return r, nil
		}
	}
	return Rendering{}, ErrNotFound
}

// SetFlag toggles liked or favorited on the scoped subset of ids.
func (s *MemoryStore) SetFlag(_ context.Context, scope Scope, ids []string, field string, value bool) (int, error) {
	if !validFlag(field) {
		return 0, fmt.Errorf("unknown flag %q", field)
	}
	wanted := idSet(ids)

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for idx, r := range s.renderings {
		if !wanted[r.ID] || !scope.Admits(r) {
			continue
		}
		if field == FlagLiked {
			s.renderings[idx].Liked = value
		} else {
			s.renderings[idx].Favorited = value
		}
		count++
	}
	return count, nil
}

// DeleteRenderings removes the scoped subset of ids and returns the removed rows.
func (s *MemoryStore) DeleteRenderings(_ context.Context, scope Scope, ids []string) ([]Rendering, error) {
	wanted := idSet(ids)

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := []Rendering{}
	kept := s.renderings[:0]
	for _, r := range s.renderings {
		if wanted[r.ID] && scope.Admits(r) {
			deleted = append(deleted, r)
			continue
		}
		kept = append(kept, r)
	}
	s.renderings = kept
	return deleted, nil
}

// CountFavorited reports how many scoped renderings are favorited.
func (s *MemoryStore) CountFavorited(_ context.Context, scope Scope) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.renderings {
		if r.Favorited && scope.Admits(r) {
			count++
		}
	}
	return count, nil
}

// CountRenderings reports the total number of stored renderings.
func (s *MemoryStore) CountRenderings(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.renderings), nil
}

// ClaimRenderings assigns ownerless renderings to a user.
func (s *MemoryStore) ClaimRenderings(_ context.Context, ids []string, ownerID string) (int, error) {
	if ownerID == "" {
		return 0, nil
	}
	wanted := idSet(ids)

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for idx, r := range s.renderings {
		if wanted[r.ID] && r.OwnerID == "" {
			s.renderings[idx].OwnerID = ownerID
			count++
		}
	}
	return count, nil
}

// Close satisfies the Store interface.
func (s *MemoryStore) Close() {}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
