package core

import (
	"sync"

	"eatlens-backend-go/internal/identity"
	"eatlens-backend-go/internal/models"
)

// Session is the per-connection view of an authenticated user: the identity
// that signed in and the reconciled profile every gate is evaluated against.
type Session struct {
	identity identity.Identity

	mu      sync.RWMutex
	profile models.User
}

// NewSession binds a reconciled profile to its identity.
func NewSession(id identity.Identity, profile models.User) *Session {
	profile.ID = id.UID
	return &Session{identity: id, profile: profile}
}

func (s *Session) Identity() identity.Identity { return s.identity }

func (s *Session) UserID() string { return s.identity.UID }

// Profile returns a copy of the current profile.
func (s *Session) Profile() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *cloneProfile(s.profile)
}

// Replace installs the authoritative profile returned by a committed write.
func (s *Session) Replace(u models.User) {
	u.ID = s.identity.UID
	s.mu.Lock()
	s.profile = *cloneProfile(u)
	s.mu.Unlock()
}

// Optimistic applies patch to the local profile, then calls persist. If
// persist fails, only the fields the patch touched are restored, so changes
// made concurrently to other fields survive.
func (s *Session) Optimistic(patch models.UserPatch, persist func() error) error {
	s.mu.Lock()
	undo := patch.Invert(s.profile)
	s.profile = patch.Apply(s.profile)
	s.mu.Unlock()

	if err := persist(); err != nil {
		s.mu.Lock()
		s.profile = undo.Apply(s.profile)
		s.mu.Unlock()
		return err
	}
	return nil
}

func cloneProfile(u models.User) *models.User {
	if u.PlanExpiryDate != nil {
		exp := *u.PlanExpiryDate
		u.PlanExpiryDate = &exp
	}
	return &u
}
