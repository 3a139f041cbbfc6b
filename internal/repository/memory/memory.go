// Package memory keeps users and sessions in process memory. It backs
// DATABASE_DRIVER=memory and the HTTP scenario tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/ansv-auth/internal/model"
)

var (
	_ model.UserStore    = (*Store)(nil)
	_ model.SessionStore = (*Store)(nil)
)

// Store implements both UserStore and SessionStore behind one mutex.
type Store struct {
	mu sync.RWMutex

	users      map[uuid.UUID]model.User
	byUsername map[string]uuid.UUID
	byEmail    map[string]uuid.UUID

	sessions    map[string]model.Session
	byUser      map[uuid.UUID]string
	byTokenHash map[string]string
}

func NewStore() *Store {
	return &Store{
		users:       make(map[uuid.UUID]model.User),
		byUsername:  make(map[string]uuid.UUID),
		byEmail:     make(map[string]uuid.UUID),
		sessions:    make(map[string]model.Session),
		byUser:      make(map[uuid.UUID]string),
		byTokenHash: make(map[string]string),
	}
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(s.byUsername, username)
}

func (s *Store) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(s.byEmail, email)
}

// GetByIdentifier prefers a username match over an email match.
func (s *Store) GetByIdentifier(_ context.Context, identifier string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, err := s.lookup(s.byUsername, identifier); err == nil {
		return u, nil
	}
	return s.lookup(s.byEmail, identifier)
}

func (s *Store) Create(_ context.Context, user model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[user.Username]; ok {
		return model.User{}, model.ErrUsernameTaken
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return model.User{}, model.ErrEmailTaken
	}
	if _, ok := s.users[user.ID]; ok {
		return model.User{}, model.ErrAlreadyExists
	}

	s.users[user.ID] = user
	s.byUsername[user.Username] = user.ID
	s.byEmail[user.Email] = user.ID
	return user, nil
}

func (s *Store) lookup(index map[string]uuid.UUID, key string) (model.User, error) {
	id, ok := index[key]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) ReplaceForUser(_ context.Context, session model.Session) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byUser[session.UserID]; ok {
		s.deleteLocked(old)
	}
	if existing, ok := s.byTokenHash[session.TokenHash]; ok {
		if s.sessions[existing].UserID != session.UserID {
			return model.Session{}, model.ErrAlreadyExists
		}
	}

	s.sessions[session.ID] = session
	s.byUser[session.UserID] = session.ID
	s.byTokenHash[session.TokenHash] = session.ID
	return session, nil
}

func (s *Store) FindByTokenHash(_ context.Context, tokenHash string) (model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byTokenHash[tokenHash]
	if !ok {
		return model.Session{}, model.ErrNotFound
	}
	return s.sessions[id], nil
}

func (s *Store) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteLocked(id)
	return nil
}

func (s *Store) ConsumeByTokenHash(_ context.Context, tokenHash string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byTokenHash[tokenHash]
	if !ok {
		return model.Session{}, model.ErrNotFound
	}
	session := s.sessions[id]
	s.deleteLocked(id)
	return session, nil
}

func (s *Store) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byUser[userID]; ok {
		s.deleteLocked(id)
	}
	return nil
}

func (s *Store) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byTokenHash[tokenHash]; ok {
		s.deleteLocked(id)
	}
	return nil
}

func (s *Store) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, session := range s.sessions {
		if session.Expired(now) {
			s.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

// SessionCount reports how many sessions userID holds.
func (s *Store) SessionCount(userID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, session := range s.sessions {
		if session.UserID == userID {
			n++
		}
	}
	return n
}

func (s *Store) deleteLocked(id string) {
	session, ok := s.sessions[id]
	if !ok {
		return
	}
	delete(s.sessions, id)
	if s.byUser[session.UserID] == id {
		delete(s.byUser, session.UserID)
	}
	if s.byTokenHash[session.TokenHash] == id {
		delete(s.byTokenHash, session.TokenHash)
	}
}
