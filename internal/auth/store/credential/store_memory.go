package credential

import (
	"context"
	"strings"
	"sync"
	"time"

	"splitledger/internal/auth/models"
	id "splitledger/pkg/domain"
	"splitledger/pkg/platform/sentinel"
)

// InMemoryStore keeps credentials in process memory. Used in tests and for
// single-node dev runs; the Postgres store is the production implementation.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[id.UserID]*models.Credential
	byEmail map[string]id.UserID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[id.UserID]*models.Credential),
		byEmail: make(map[string]id.UserID),
	}
}

func (s *InMemoryStore) CreateUser(_ context.Context, cred *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(cred.Identity.Email)
	if _, exists := s.byEmail[email]; exists {
		return sentinel.ErrConflict
	}
	c := cloneCredential(cred)
	c.Identity.Email = email
	s.byID[c.Identity.ID] = c
	s.byEmail[email] = c.Identity.ID
	return nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCredential(s.byID[userID]), nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.byID[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCredential(cred), nil
}

func (s *InMemoryStore) SavePendingEnrollment(_ context.Context, userID id.UserID, secret string, codeHashes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.byID[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if cred.Enrollment.State == models.EnrollmentConfirmed {
		return sentinel.ErrInvalidState
	}

	codes := make([]models.BackupCode, len(codeHashes))
	for i, h := range codeHashes {
		codes[i] = models.BackupCode{Hash: h}
	}
	cred.Enrollment = models.Enrollment{
		State:       models.EnrollmentPending,
		Secret:      secret,
		BackupCodes: codes,
	}
	return nil
}

func (s *InMemoryStore) ConfirmEnrollment(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.byID[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if cred.Enrollment.State != models.EnrollmentPending {
		return sentinel.ErrInvalidState
	}
	cred.Enrollment.State = models.EnrollmentConfirmed
	return nil
}

func (s *InMemoryStore) DisableMFA(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.byID[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	cred.Enrollment = models.Enrollment{State: models.EnrollmentAbsent}
	return nil
}

// MarkBackupCodeUsed is the check-and-mark consumption point. The whole
// operation runs under one lock, so two concurrent consumers of the same code
// see exactly one success.
func (s *InMemoryStore) MarkBackupCodeUsed(_ context.Context, userID id.UserID, codeHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.byID[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	for i := range cred.Enrollment.BackupCodes {
		code := &cred.Enrollment.BackupCodes[i]
		if code.Hash != codeHash {
			continue
		}
		if code.UsedAt != nil {
			return sentinel.ErrAlreadyUsed
		}
		now := time.Now()
		code.UsedAt = &now
		return nil
	}
	return sentinel.ErrAlreadyUsed
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneCredential(c *models.Credential) *models.Credential {
	out := *c
	out.PasswordHash = append([]byte(nil), c.PasswordHash...)
	out.PasswordSalt = append([]byte(nil), c.PasswordSalt...)
	out.Enrollment.BackupCodes = make([]models.BackupCode, len(c.Enrollment.BackupCodes))
	for i, bc := range c.Enrollment.BackupCodes {
		out.Enrollment.BackupCodes[i] = bc
		if bc.UsedAt != nil {
			t := *bc.UsedAt
			out.Enrollment.BackupCodes[i].UsedAt = &t
		}
	}
	return &out
}
