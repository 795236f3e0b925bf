package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"colorize/api/internal/config"
	"colorize/api/internal/repository"
	"colorize/api/internal/workspace"
)

type Scheduler struct {
	cron       *cron.Cron
	queue      *redis.Client
	stream     string
	workspaces *workspace.Registry
	sessions   *repository.SessionRepository
	log        zerolog.Logger
}

func NewScheduler(queue *redis.Client, workspaces *workspace.Registry, sessions *repository.SessionRepository, cfg config.QueueConfig, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:       c,
		queue:      queue,
		stream:     cfg.Stream,
		workspaces: workspaces,
		sessions:   sessions,
		log:        log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 */10 * * * *", s.reapWorkspaces); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 0 * * *", s.enqueueCleanup); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.pruneSessions); err != nil { // hourly recheck
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.CancelFunc {
	_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		s.cron.Stop()
		cancel()
	}()
	return cancel
}

func (s *Scheduler) reapWorkspaces() {
	s.workspaces.ReapIdle()
}

func (s *Scheduler) pruneSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("expired session cleanup failed")
		return
	}
	if deleted > 0 {
		s.log.Info().Int64("count", deleted).Msg("expired sessions removed")
	}
}

func (s *Scheduler) enqueueCleanup() {
	if err := s.enqueueTask(map[string]any{
		"type": "cleanup",
	}); err != nil {
		s.log.Error().Err(err).Msg("enqueue cleanup failed")
	}
}

func (s *Scheduler) enqueueTask(payload map[string]any) error {
	if s.queue == nil {
		return nil
	}
	_, err := s.queue.XAdd(context.Background(), &redis.XAddArgs{
		Stream: s.stream,
		Values: payload,
	}).Result()
	return err
}
