package session

import (
	"sync"

	"animation_panel_server/internal/types"
)

// Cell holds the last confirmed-valid configuration of a session. The
// session's validation pass is the only writer; prompt hooks read it.
type Cell struct {
	mu  sync.RWMutex
	cfg types.AnimationConfig
}

func NewCell(cfg types.AnimationConfig) *Cell {
	return &Cell{cfg: cfg.Clone()}
}

func (c *Cell) Load() types.AnimationConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Clone()
}

func (c *Cell) Store(cfg types.AnimationConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg.Clone()
}
