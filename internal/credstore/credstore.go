package credstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/valdiviesod/citasalud-cli/internal/constants"
	"github.com/valdiviesod/citasalud-cli/internal/models"
)

var (
	// ErrNotFound is returned when no credential is stored
	ErrNotFound = errors.New("credential not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Store persists the bearer token and the cached user profile under fixed
// keys in the OS keyring. It is shared by the session machine (sole regular
// writer) and the HTTP gateway (reader on every request, clear on 401), so
// a 401-triggered clear is immediately visible to subsequent requests.
type Store struct {
	service string
}

// New returns a store bound to the default keyring service.
func New() *Store {
	return &Store{service: constants.KeyringService}
}

// NewWithService returns a store bound to a custom service name. Tests use
// this to avoid colliding with a real user's credentials.
func NewWithService(service string) *Store {
	return &Store{service: service}
}

// Save stores the token and profile together. A profile is never persisted
// without a token.
func (s *Store) Save(token string, profile models.UserProfile) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if err := keyring.Set(s.service, constants.KeyringToken, token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := keyring.Set(s.service, constants.KeyringUser, string(data)); err != nil {
		return fmt.Errorf("failed to store profile in keyring: %w", err)
	}
	return nil
}

// SaveProfile overwrites only the cached profile. It fails if no token is
// stored, preserving the profile-implies-token invariant.
func (s *Store) SaveProfile(profile models.UserProfile) error {
	if _, err := s.Token(); err != nil {
		return fmt.Errorf("cannot cache profile without a stored token: %w", err)
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := keyring.Set(s.service, constants.KeyringUser, string(data)); err != nil {
		return fmt.Errorf("failed to store profile in keyring: %w", err)
	}
	return nil
}

// Token retrieves the stored bearer token. Returns ErrNotFound if absent.
func (s *Store) Token() (string, error) {
	token, err := keyring.Get(s.service, constants.KeyringToken)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return token, nil
}

// Profile retrieves the cached profile. If a profile somehow exists without
// a token it is treated as absent and removed.
func (s *Store) Profile() (models.UserProfile, error) {
	var profile models.UserProfile

	if _, err := s.Token(); err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = keyring.Delete(s.service, constants.KeyringUser)
		}
		return profile, err
	}

	data, err := keyring.Get(s.service, constants.KeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return profile, ErrNotFound
		}
		return profile, fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return profile, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return profile, nil
}

// Clear removes the token and profile. Missing entries are not an error so
// Clear is safe to call from any state.
func (s *Store) Clear() error {
	tokenErr := keyring.Delete(s.service, constants.KeyringToken)
	userErr := keyring.Delete(s.service, constants.KeyringUser)

	if tokenErr != nil && !errors.Is(tokenErr, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from keyring: %w", tokenErr)
	}
	if userErr != nil && !errors.Is(userErr, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete profile from keyring: %w", userErr)
	}
	return nil
}

// IsAvailable checks if the OS keyring is usable on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func (s *Store) IsAvailable() bool {
	_, err := keyring.Get(s.service, constants.KeyringToken)
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
