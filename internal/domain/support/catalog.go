package support

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var errNoLister = errors.New("no model lister configured")

// ModelCatalog tracks which generative models the configured provider serves.
// Until the first successful probe it reports the static fallback list and
// Ready is false.
type ModelCatalog struct {
	lister    ModelLister
	preferred []string
	fallback  []string
	logger    *slog.Logger
	now       func() time.Time

	group singleflight.Group
	wg    sync.WaitGroup

	mu          sync.RWMutex
	models      []string
	ready       bool
	refreshedAt time.Time
	lastErr     error
}

// NewModelCatalog builds a catalog. When fallback is empty the preferred list doubles as fallback.
func NewModelCatalog(lister ModelLister, preferred, fallback []string, logger *slog.Logger) *ModelCatalog {
	if len(fallback) == 0 {
		fallback = preferred
	}
	return &ModelCatalog{
		lister:    lister,
		preferred: slices.Clone(preferred),
		fallback:  slices.Clone(fallback),
		logger:    logger.With("component", "support.catalog"),
		now:       time.Now,
	}
}

// Start probes the provider once in the background.
func (c *ModelCatalog) Start(ctx context.Context) {
	if c == nil || c.lister == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.Refresh(ctx); err != nil {
			c.logger.Warn("model discovery failed, using fallback list", "error", err, "fallback", c.fallback)
			return
		}
		c.logger.Info("model discovery completed", "models", len(c.Snapshot().Models))
	}()
}

// Wait blocks until background probes started by Start have returned.
func (c *ModelCatalog) Wait() {
	if c == nil {
		return
	}
	c.wg.Wait()
}

// Refresh queries the provider. Concurrent calls share one probe.
func (c *ModelCatalog) Refresh(ctx context.Context) error {
	if c == nil || c.lister == nil {
		return errNoLister
	}
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		models, err := c.lister.ListModels(ctx)
		if err == nil && len(models) == 0 {
			err = errors.New("provider returned no models")
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.lastErr = err
			return nil, err
		}
		c.models = slices.Clone(models)
		c.ready = true
		c.refreshedAt = c.now()
		c.lastErr = nil
		return nil, nil
	})
	return err
}

// Snapshot returns the discovered models, or the fallback list when discovery has not succeeded.
func (c *ModelCatalog) Snapshot() ModelSnapshot {
	if c == nil {
		return ModelSnapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := ModelSnapshot{Ready: c.ready, RefreshedAt: c.refreshedAt}
	if c.ready {
		snap.Models = slices.Clone(c.models)
	} else {
		snap.Models = slices.Clone(c.fallback)
	}
	if c.lastErr != nil {
		snap.Error = c.lastErr.Error()
	}
	return snap
}

// Preferred picks the first configured model the provider lists. When none
// was discovered it returns the first configured name rather than an
// arbitrary listed model.
func (c *ModelCatalog) Preferred() string {
	if c == nil {
		return ""
	}
	snap := c.Snapshot()
	configured := append(slices.Clone(c.preferred), c.fallback...)
	for _, name := range configured {
		if name != "" && slices.Contains(snap.Models, name) {
			return name
		}
	}
	for _, name := range configured {
		if name != "" {
			return name
		}
	}
	if len(snap.Models) > 0 {
		return snap.Models[0]
	}
	return ""
}
