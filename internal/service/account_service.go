package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"colorize/api/internal/config"
	"colorize/api/internal/media/sniffer"
	"colorize/api/internal/models"
	"colorize/api/internal/repository"
	"colorize/api/internal/security"
	"colorize/api/internal/storage"
)

var (
	ErrWrongPassword   = errors.New("current password is incorrect")
	ErrGoogleAccount   = errors.New("password managed by google sign-in")
	ErrAvatarTooLarge  = errors.New("avatar exceeds 2MB limit")
	ErrAvatarBadFormat = errors.New("avatar must be JPEG, PNG or GIF")
)

type AccountService struct {
	users  *repository.UserRepository
	store  *storage.ObjectStore
	queue  *redis.Client
	stream string
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewAccountService(users *repository.UserRepository, store *storage.ObjectStore, queue *redis.Client, cfg *config.AppConfig, log zerolog.Logger) *AccountService {
	return &AccountService{
		users:  users,
		store:  store,
		queue:  queue,
		stream: cfg.Queue.Stream,
		cfg:    cfg,
		log:    log,
	}
}

// UpdateUsername applies the rename after trimming, length-capping and a
// uniqueness check against every other user.
func (s *AccountService) UpdateUsername(ctx context.Context, userID string, username string) error {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > maxUsernameLength {
		return ErrUsernameInvalid
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Username == username {
		return nil
	}

	taken, err := s.users.UsernameTaken(ctx, username, userID)
	if err != nil {
		return err
	}
	if taken {
		return ErrUsernameTaken
	}

	return s.users.UpdateUsername(ctx, userID, username)
}

// ChangePassword re-authenticates with the current password before
// applying a new one. Google-registered accounts have no local password.
func (s *AccountService) ChangePassword(ctx context.Context, userID string, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.RegistrationMethod == models.RegistrationGoogle {
		return ErrGoogleAccount
	}

	ok, err := security.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil || !ok {
		return ErrWrongPassword
	}

	if !security.IsStrongPassword(newPassword) {
		return ErrWeakPassword
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.users.UpdatePasswordHash(ctx, userID, hash)
}

// UploadAvatar validates the blob (type, then size), stores it under a
// caller-derived key and writes the public URL back to the user row. A
// normalization task goes onto the queue for the worker.
func (s *AccountService) UploadAvatar(ctx context.Context, userID string, data []byte) (string, error) {
	headLen := len(data)
	if headLen > 512 {
		headLen = 512
	}
	detected, err := sniffer.DetectHead(data[:headLen])
	if err != nil || !sniffer.Allowed(detected.Type, sniffer.AvatarTypes) {
		return "", ErrAvatarBadFormat
	}

	if int64(len(data)) > s.cfg.Workspace.AvatarMaxBytes {
		return "", ErrAvatarTooLarge
	}

	objectKey := fmt.Sprintf("avatars/%s-%d.%s", userID, time.Now().Unix(), detected.Type)
	url, err := s.store.PutAvatar(ctx, objectKey, data, detected.MIME)
	if err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}

	if err := s.users.UpdateAvatarURL(ctx, userID, url); err != nil {
		return "", err
	}

	if err := s.enqueueAvatarTask(ctx, userID, objectKey); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("enqueue avatar task failed")
	}

	return url, nil
}

// TourStatus reports whether the account tour should be shown and marks
// it seen in the same operation, so it shows at most once.
func (s *AccountService) TourStatus(ctx context.Context, userID string) (bool, error) {
	return s.users.MarkTourSeen(ctx, userID)
}

func (s *AccountService) enqueueAvatarTask(ctx context.Context, userID, objectKey string) error {
	if s.queue == nil {
		return nil
	}
	_, err := s.queue.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"type":   "avatar",
			"userId": userID,
			"object": objectKey,
		},
	}).Result()
	return err
}
