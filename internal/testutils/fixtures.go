package testutils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskhub/apiserver/internal/storage"
	"github.com/taskhub/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// Secret is a signing secret long enough for every HMAC variant check.
const Secret = "test-jwt-secret-that-is-32-chars-long"

// OtherSecret is a second valid secret used to check key isolation.
const OtherSecret = "another-test-secret-that-is-32-chars"

// Password is the plaintext password of users created by MustCreateUser.
const Password = "correct horse battery staple"

// MustCreateUser stores a user with the given email and roles whose
// password is Password.
func MustCreateUser(ctx context.Context, t *testing.T, repo *UserRepository, email string, roles ...types.Role) types.User {
	t.Helper()
	if len(roles) == 0 {
		roles = []types.Role{types.RoleUser}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err, "hash password")

	user, err := repo.Create(ctx, types.User{
		Email:        email,
		Name:         email,
		Roles:        roles,
		PasswordHash: string(hash),
	})
	require.NoError(t, err, "create user %s", email)
	return user
}

// Event is a domain event captured by EventRecorder.
type Event struct {
	Name    string
	Payload any
}

// EventRecorder records published domain events.
type EventRecorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *EventRecorder) Publish(_ context.Context, name string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, Event{Name: name, Payload: payload})
	return nil
}

// Names returns the recorded event names in publish order.
func (r *EventRecorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.events))
	for _, e := range r.events {
		names = append(names, e.Name)
	}
	return names
}

// ObjectStore keeps objects in memory.
type ObjectStore struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	types   map[string]string
}

func NewObjectStore(bucket string) *ObjectStore {
	return &ObjectStore{
		bucket:  bucket,
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (s *ObjectStore) EnsureBucket(context.Context) error { return nil }

func (s *ObjectStore) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("object %s: got %d bytes, want %d", key, len(data), size)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *ObjectStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *ObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.types, key)
	return nil
}

func (s *ObjectStore) Bucket() string { return s.bucket }

// Len returns the number of stored objects.
func (s *ObjectStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
