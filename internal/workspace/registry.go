package workspace

import (
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"colorize/api/internal/config"
	"colorize/api/internal/inference"
)

// Registry owns one workspace per user. Workspaces are created lazily on
// first touch and reaped after sitting idle; staged bytes and results
// live only here, never in object storage.
type Registry struct {
	mu         sync.Mutex
	workspaces map[string]*Workspace

	cfg    config.WorkspaceConfig
	client *inference.Client
	cache  *redis.Client
	log    zerolog.Logger
}

func NewRegistry(cfg config.WorkspaceConfig, client *inference.Client, cache *redis.Client, log zerolog.Logger) *Registry {
	return &Registry{
		workspaces: make(map[string]*Workspace),
		cfg:        cfg,
		client:     client,
		cache:      cache,
		log:        log,
	}
}

// Obtain returns the user's workspace, creating it if needed.
func (r *Registry) Obtain(userID string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.workspaces[userID]
	if !ok {
		ws = New(r.cfg, r.client, r.cache, r.log)
		r.workspaces[userID] = ws
	}
	return ws
}

// Release drops the user's workspace and everything staged in it.
func (r *Registry) Release(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workspaces, userID)
}

// ReapIdle drops workspaces untouched for longer than the idle TTL and
// returns how many were removed.
func (r *Registry) ReapIdle() int {
	cutoff := time.Now().Add(-r.cfg.IdleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	reaped := 0
	for userID, ws := range r.workspaces {
		if ws.LastActive().Before(cutoff) {
			delete(r.workspaces, userID)
			reaped++
		}
	}
	if reaped > 0 {
		r.log.Info().Int("count", reaped).Msg("idle workspaces reaped")
	}
	return reaped
}
