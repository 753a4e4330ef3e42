// Package store is the in-memory persistence of the mock tour backend.
package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trekkers/tour-client/internal/core/domain"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already in use")
	ErrAlreadyVoted   = errors.New("already upvoted")
	ErrNotVoted       = errors.New("not upvoted")
)

// User is the server-side account record.
type User struct {
	ID                string
	Name              string
	Email             string
	Photo             string
	Role              string
	PasswordHash      []byte
	PasswordChangedAt time.Time
	ResetTokenHash    string
	ResetExpires      time.Time
	Active            bool
}

// Profile is the public view of u.
func (u User) Profile() domain.UserProfile {
	return domain.UserProfile{ID: u.ID, Name: u.Name, Email: u.Email, Photo: u.Photo, Role: u.Role}
}

// Memory holds users, tours and votes behind one lock.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]*User
	byEmail map[string]string
	tours   map[string]*domain.Tour
	bySlug  map[string]string
	votes   map[string]map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]*User),
		byEmail: make(map[string]string),
		tours:   make(map[string]*domain.Tour),
		bySlug:  make(map[string]string),
		votes:   make(map[string]map[string]struct{}),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores u under a fresh id and returns the stored copy.
func (m *Memory) CreateUser(u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = normalizeEmail(u.Email)
	if _, exists := m.byEmail[u.Email]; exists {
		return User{}, ErrDuplicateEmail
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	u.Active = true
	stored := u
	m.users[u.ID] = &stored
	m.byEmail[u.Email] = u.ID
	return u, nil
}

// UserByID returns active users only.
func (m *Memory) UserByID(id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok || !u.Active {
		return User{}, ErrNotFound
	}
	return *u, nil
}

func (m *Memory) UserByEmail(email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[normalizeEmail(email)]
	if !ok || !m.users[id].Active {
		return User{}, ErrNotFound
	}
	return *m.users[id], nil
}

// UserByResetHash finds the user holding an unexpired reset token.
func (m *Memory) UserByResetHash(hash string, now time.Time) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Active && u.ResetTokenHash != "" && u.ResetTokenHash == hash && now.Before(u.ResetExpires) {
			return *u, nil
		}
	}
	return User{}, ErrNotFound
}

// UpdateUser applies fn to a copy of the user and stores it if fn succeeds.
func (m *Memory) UpdateUser(id string, fn func(*User) error) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.users[id]
	if !ok || !cur.Active {
		return User{}, ErrNotFound
	}
	next := *cur
	if err := fn(&next); err != nil {
		return User{}, err
	}
	next.Email = normalizeEmail(next.Email)
	if next.Email != cur.Email {
		if _, taken := m.byEmail[next.Email]; taken {
			return User{}, ErrDuplicateEmail
		}
		delete(m.byEmail, cur.Email)
		m.byEmail[next.Email] = id
	}
	m.users[id] = &next
	return next, nil
}

// ListUsers returns active users sorted by email.
func (m *Memory) ListUsers() []User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		if u.Active {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

// PutTour inserts or replaces t.
func (m *Memory) PutTour(t domain.Tour) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Upvotes = len(m.votes[t.ID])
	stored := t
	m.tours[t.ID] = &stored
	if t.Slug != "" {
		m.bySlug[t.Slug] = t.ID
	}
}

// Tours returns every tour sorted by name.
func (m *Memory) Tours() []domain.Tour {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Tour, 0, len(m.tours))
	for _, t := range m.tours {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Memory) TourBySlug(slug string) (domain.Tour, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.bySlug[slug]
	if !ok {
		return domain.Tour{}, ErrNotFound
	}
	return *m.tours[id], nil
}

// Upvote records userID's vote on tourID and returns the new count.
func (m *Memory) Upvote(tourID, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tours[tourID]
	if !ok {
		return 0, ErrNotFound
	}
	voters := m.votes[tourID]
	if voters == nil {
		voters = make(map[string]struct{})
		m.votes[tourID] = voters
	}
	if _, voted := voters[userID]; voted {
		return t.Upvotes, ErrAlreadyVoted
	}
	voters[userID] = struct{}{}
	t.Upvotes = len(voters)
	return t.Upvotes, nil
}

// Downvote removes userID's vote on tourID and returns the new count.
func (m *Memory) Downvote(tourID, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tours[tourID]
	if !ok {
		return 0, ErrNotFound
	}
	if _, voted := m.votes[tourID][userID]; !voted {
		return t.Upvotes, ErrNotVoted
	}
	delete(m.votes[tourID], userID)
	t.Upvotes = len(m.votes[tourID])
	return t.Upvotes, nil
}

// VoteStatus reports whether userID voted on tourID and the tour's count.
func (m *Memory) VoteStatus(tourID, userID string) (domain.VoteStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tours[tourID]
	if !ok {
		return domain.VoteStatus{}, ErrNotFound
	}
	_, voted := m.votes[tourID][userID]
	return domain.VoteStatus{HasUpvoted: voted, Upvotes: t.Upvotes}, nil
}
