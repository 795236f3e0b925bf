package workspace

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRegistryObtainIsStable(t *testing.T) {
	r := NewRegistry(testWorkspaceConfig(), nil, nil, zerolog.Nop())

	a := r.Obtain("user-1")
	b := r.Obtain("user-1")
	if a != b {
		t.Error("same user got two workspaces")
	}
	if other := r.Obtain("user-2"); other == a {
		t.Error("distinct users share a workspace")
	}
}

func TestRegistryRelease(t *testing.T) {
	r := NewRegistry(testWorkspaceConfig(), nil, nil, zerolog.Nop())

	a := r.Obtain("user-1")
	r.Release("user-1")
	if r.Obtain("user-1") == a {
		t.Error("released workspace was handed out again")
	}
}

func TestRegistryReapIdle(t *testing.T) {
	cfg := testWorkspaceConfig()
	cfg.IdleTTL = -time.Minute // every workspace counts as idle
	r := NewRegistry(cfg, nil, nil, zerolog.Nop())

	r.Obtain("user-1")
	r.Obtain("user-2")

	if got := r.ReapIdle(); got != 2 {
		t.Errorf("ReapIdle = %d, want 2", got)
	}
	if got := r.ReapIdle(); got != 0 {
		t.Errorf("second ReapIdle = %d, want 0", got)
	}
}
