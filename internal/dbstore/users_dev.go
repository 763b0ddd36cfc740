package dbstore

import (
	"github.com/pixellobby/arcade/pkg/protocol"
	"github.com/pixellobby/arcade/pkg/security"
)

// RegisterDev creates a new DeveloperAccount. Fails ACCOUNT_EXISTS if the
// username is already taken.
func (s *Store) RegisterDev(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.doc.UsersDev[username]; exists {
		return &ActionError{Reason: protocol.ReasonAccountExists}
	}

	hash, salt, err := security.HashPassword(password)
	if err != nil {
		return err
	}

	s.doc.UsersDev[username] = &DevUser{
		Username:  username,
		PassHash:  hash,
		PassSalt:  salt,
		CreatedAt: s.doc.nextID("timestamp"),
	}
	s.persist()
	return nil
}

// AuthDev verifies a developer's credentials. Fails USER_NOT_FOUND or
// WRONG_PASSWORD.
func (s *Store) AuthDev(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.doc.UsersDev[username]
	if !ok {
		return &ActionError{Reason: protocol.ReasonUserNotFound}
	}
	if !security.VerifyPassword(password, u.PassHash, u.PassSalt) {
		return &ActionError{Reason: protocol.ReasonWrongPassword}
	}
	return nil
}

// GetDev returns a developer's record, or NOT_FOUND.
func (s *Store) GetDev(username string) (*DevUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.doc.UsersDev[username]
	if !ok {
		return nil, &ActionError{Reason: protocol.ReasonNotFound}
	}
	cp := *u
	return &cp, nil
}
