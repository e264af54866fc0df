package mock

import (
	"context"
	"sync"

	"apiplay/internal/model"
)

// Store owns the mock user records. Every call is atomic on its own, but
// nothing serializes a request's read-delay-write sequence against another
// request: two overlapping mutations interleave at the delay boundary.
type Store interface {
	List(ctx context.Context) ([]model.User, error)
	// Get returns the first record with id.
	Get(ctx context.Context, id int) (model.User, bool, error)
	// Create appends a record whose id is the current record count + 1.
	// Ids are not reserved, so they can repeat after a delete.
	Create(ctx context.Context, firstName, lastName string) (model.User, error)
	// Update replaces the first record with user.ID.
	Update(ctx context.Context, user model.User) (model.User, bool, error)
	// Delete removes the first record with id.
	Delete(ctx context.Context, id int) (bool, error)
	Close() error
}

// DefaultUsers returns the seed records
func DefaultUsers() []model.User {
	return []model.User{
		{ID: 1, FirstName: "John", LastName: "Doe"},
		{ID: 2, FirstName: "Jane", LastName: "Doe"},
	}
}

// MemoryStore is a mutex-guarded in-process Store
type MemoryStore struct {
	mu    sync.Mutex
	users []model.User
}

// NewMemoryStore creates a store holding a copy of seed
func NewMemoryStore(seed []model.User) *MemoryStore {
	users := make([]model.User, len(seed))
	copy(users, seed)
	return &MemoryStore{users: users}
}

func (s *MemoryStore) List(ctx context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id int) (model.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return s.users[i], true, nil
	}
	return model.User{}, false, nil
}

func (s *MemoryStore) Create(ctx context.Context, firstName, lastName string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := model.User{ID: len(s.users) + 1, FirstName: firstName, LastName: lastName}
	s.users = append(s.users, u)
	return u, nil
}

func (s *MemoryStore) Update(ctx context.Context, user model.User) (model.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(user.ID)
	if i < 0 {
		return model.User{}, false, nil
	}
	s.users[i] = user
	return user, true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	return true, nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) indexOf(id int) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}
