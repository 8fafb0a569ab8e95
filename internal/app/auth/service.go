package auth

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Credential is the freshly minted per-session deletion secret. The plain
// password is never stored; only the hash is, on both the server rows and
// the client cookie.
type Credential struct {
	Password string
	Hash     string
}

type Service interface {
	// MintCredential generates a random high-entropy password and its
	// argon2id hash. Called once per browsing session, on first post.
	MintCredential() (*Credential, error)
	// Record writes the DeletionAuth row for a freshly created post.
	Record(contentID uint64, imageID *uint64, passwordHash string) error
	// ResolveHash maps a plain deletion password to the stored hash it
	// belongs to among the given posts. Empty result means nothing matched.
	ResolveHash(ids []uint64, password string) (string, error)
}

type service struct {
	repo   Repository
	logger *zap.SugaredLogger
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger.Sugar(),
	}
}

func (s *service) MintCredential() (*Credential, error) {
	password, err := GeneratePassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &Credential{Password: password, Hash: hash}, nil
}

func (s *service) Record(contentID uint64, imageID *uint64, passwordHash string) error {
	if passwordHash == "" {
		// Legacy pre-auth post: no credential, can never be deleted.
		return nil
	}
	err := s.repo.Create(&DeletionAuth{
		ContentID:    contentID,
		ImageID:      imageID,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return fmt.Errorf("failed to record deletion auth: %w", err)
	}
	s.logger.Debugw("Recorded deletion auth", "content_id", contentID)
	return nil
}

// ResolveHash covers the delete form without a credential cookie: the client
// types the password, and the matching stored hash authorizes the batch the
// same way the cookie value would.
func (s *service) ResolveHash(ids []uint64, password string) (string, error) {
	if password == "" {
		return "", nil
	}
	for _, id := range ids {
		da, err := s.repo.GetByContentID(id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to load deletion auth: %w", err)
		}
		ok, err := verifyPassword(da.PasswordHash, password)
		if err != nil {
			// Unparseable legacy hash, never a match.
			continue
		}
		if ok {
			return da.PasswordHash, nil
		}
	}
	return "", nil
}
