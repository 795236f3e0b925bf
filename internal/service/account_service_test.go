package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"colorize/api/internal/config"
)

func TestAccountServiceTargetsConfiguredStream(t *testing.T) {
	cfg := &config.AppConfig{}
	cfg.Queue.Stream = "custom:tasks"

	s := NewAccountService(nil, nil, nil, cfg, zerolog.Nop())
	if s.stream != cfg.Queue.Stream {
		t.Errorf("avatar tasks enqueue to %q, want configured stream %q", s.stream, cfg.Queue.Stream)
	}
}

func TestEnqueueAvatarTaskWithoutQueue(t *testing.T) {
	cfg := &config.AppConfig{}
	cfg.Queue.Stream = "colorize:tasks"

	s := NewAccountService(nil, nil, nil, cfg, zerolog.Nop())
	if err := s.enqueueAvatarTask(context.Background(), "user-1", "avatars/user-1-1700000000.png"); err != nil {
		t.Errorf("enqueue without a queue client must be a no-op, got %v", err)
	}
}
