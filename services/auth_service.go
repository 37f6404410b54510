package services

import (
	"fmt"

	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/errors"
)

// AuthService is the credential gate: authentication and first-time
// registration are the same call (signup-on-first-login). The existence check
// and the insert run inside one repository transaction, so there is no window
// for two concurrent first logins to both register.
type AuthService struct {
	repo     contract.CredentialRepository
	digester contract.Digester
}

func NewAuthService(repo contract.CredentialRepository, digester contract.Digester) *AuthService {
	return &AuthService{repo: repo, digester: digester}
}

// Authenticate accepts a known username with a matching password, or
// registers an unknown username with the supplied password and accepts.
// Only the digest ever reaches the repository; hashing happens here to keep
// the storage layer unaware of plain passwords.
func (s *AuthService) Authenticate(username, password string) error {
	req := auth.LoginRequest{Username: username, Password: password}
	if err := auth.ValidateLogin(req); err != nil {
		return err
	}

	digest, err := s.digester.Digest(password)
	if err != nil {
		return fmt.Errorf("digest failed: %w", err)
	}

	stored, inserted, err := s.repo.UpsertIfAbsent(username, digest)
	if err != nil {
		return err
	}
	if inserted {
		// First sight of this username: registered and accepted.
		return nil
	}

	// Verify against the digester matching the stored form, not the
	// configured one: the configured algorithm only governs how new
	// credentials are produced, so entries written under the legacy scheme
	// keep working after a switch to argon2id.
	match, err := auth.DigesterFor(stored).Verify(password, stored)
	if err != nil || !match {
		return errors.ErrInvalidCredentials
	}
	return nil
}
