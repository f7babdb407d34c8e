package catalog

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// Cached holds the latest snapshot loaded from a Source. Readers never
// block; a failed reload keeps the previous snapshot.
type Cached struct {
	source  Source
	current atomic.Pointer[Catalog]
	cron    *cron.Cron
	logger  *slog.Logger
}

var _ Provider = (*Cached)(nil)

// NewCached creates a Cached provider. Until the first successful load it
// serves an empty snapshot.
func NewCached(source Source, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cached{source: source, logger: logger}
	c.current.Store(Empty())
	return c
}

// Snapshot implements Provider.
func (c *Cached) Snapshot() *Catalog {
	return c.current.Load()
}

// Refresh reloads the snapshot from the source.
func (c *Cached) Refresh(ctx context.Context) error {
	next, err := c.source.Load(ctx)
	if err != nil {
		return err
	}
	prev := c.current.Swap(next)
	if prev.Len() != next.Len() {
		c.logger.Info("catalog refreshed", "tables", next.Len(), "previous", prev.Len())
	}
	return nil
}

// Start loads the first snapshot and schedules reloads on spec, a cron
// expression such as "@every 30s".
func (c *Cached) Start(ctx context.Context, spec string) error {
	if err := c.Refresh(ctx); err != nil {
		return err
	}
	c.cron = cron.New()
	_, err := c.cron.AddFunc(spec, func() {
		if err := c.Refresh(ctx); err != nil {
			c.logger.Warn("catalog refresh failed, keeping previous snapshot", "error", err)
		}
	})
	if err != nil {
		return err
	}
	c.cron.Start()
	c.logger.Info("catalog refresher started", "schedule", spec, "tables", c.Snapshot().Len())
	return nil
}

// Stop halts scheduled reloads and waits for a running one to finish.
func (c *Cached) Stop() {
	if c.cron == nil {
		return
	}
	<-c.cron.Stop().Done()
	c.logger.Info("catalog refresher stopped")
}
