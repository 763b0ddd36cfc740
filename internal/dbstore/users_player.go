package dbstore

import (
	"github.com/pixellobby/arcade/pkg/protocol"
	"github.com/pixellobby/arcade/pkg/security"
)

// RegisterPlayer creates a new PlayerAccount. Fails ACCOUNT_EXISTS if the
// username is already taken.
func (s *Store) RegisterPlayer(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.doc.UsersPlayer[username]; exists {
		return &ActionError{Reason: protocol.ReasonAccountExists}
	}

	hash, salt, err := security.HashPassword(password)
	if err != nil {
		return err
	}

	s.doc.UsersPlayer[username] = &PlayerUser{
		Username:    username,
		PassHash:    hash,
		PassSalt:    salt,
		CreatedAt:   s.doc.nextID("timestamp"),
		PlayHistory: []string{},
	}
	s.persist()
	return nil
}

// AuthPlayer verifies a player's credentials and returns their play
// history on success.
func (s *Store) AuthPlayer(username, password string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.doc.UsersPlayer[username]
	if !ok {
		return nil, &ActionError{Reason: protocol.ReasonUserNotFound}
	}
	if !security.VerifyPassword(password, u.PassHash, u.PassSalt) {
		return nil, &ActionError{Reason: protocol.ReasonWrongPassword}
	}
	return append([]string(nil), u.PlayHistory...), nil
}

// RecordPlay appends gameID to username's play_history if absent.
func (s *Store) RecordPlay(username, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.doc.UsersPlayer[username]
	if !ok {
		return &ActionError{Reason: protocol.ReasonUserNotFound}
	}
	if !u.hasPlayed(gameID) {
		u.PlayHistory = append(u.PlayHistory, gameID)
		s.persist()
	}
	return nil
}

// GetPlayer returns a player's record, or NOT_FOUND.
func (s *Store) GetPlayer(username string) (*PlayerUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.doc.UsersPlayer[username]
	if !ok {
		return nil, &ActionError{Reason: protocol.ReasonNotFound}
	}
	cp := *u
	cp.PlayHistory = append([]string(nil), u.PlayHistory...)
	return &cp, nil
}
