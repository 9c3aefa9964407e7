package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantProvider lists the tenants jobs run for
type TenantProvider interface {
	FindActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// Interval between two runs over all tenants
	Interval time.Duration
	// RunOnStart fires one run right after Start
	RunOnStart bool
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		Interval:   time.Hour,
		RunOnStart: true,
	}
}

// CronTrigger periodically queues the maintenance jobs of every active tenant
type CronTrigger struct {
	config         CronTriggerConfig
	scheduler      *Scheduler
	tenantProvider TenantProvider
	logger         *zap.Logger
	now            func() time.Time
	beforeRun      func(ctx context.Context) error

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRunAt *time.Time
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(
	config CronTriggerConfig,
	scheduler *Scheduler,
	tenantProvider TenantProvider,
	logger *zap.Logger,
) *CronTrigger {
	if config.Interval <= 0 {
		config.Interval = DefaultCronTriggerConfig().Interval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronTrigger{
		config:         config,
		scheduler:      scheduler,
		tenantProvider: tenantProvider,
		logger:         logger,
		now:            time.Now,
	}
}

// SetBeforeRun registers work done once per run before tenants are queued.
// A failing hook is logged and the run goes on.
func (c *CronTrigger) SetBeforeRun(fn func(ctx context.Context) error) {
	c.beforeRun = fn
}

// Start starts the trigger loop. The scheduler must already be running.
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.Duration("interval", c.config.Interval),
		zap.Bool("run_on_start", c.config.RunOnStart),
	)
	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	if c.config.RunOnStart {
		c.TriggerAll(ctx)
	}

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.TriggerAll(ctx)
		}
	}
}

// TriggerAll queues jobs for every active tenant and returns how many tenants were queued
func (c *CronTrigger) TriggerAll(ctx context.Context) int {
	if c.beforeRun != nil {
		if err := c.beforeRun(ctx); err != nil {
			c.logger.Error("Pre-run hook failed", zap.Error(err))
		}
	}

	tenantIDs, err := c.tenantProvider.FindActiveIDs(ctx)
	if err != nil {
		c.logger.Error("Failed to list active tenants", zap.Error(err))
		return 0
	}

	now := c.now()
	c.mu.Lock()
	c.lastRunAt = &now
	c.mu.Unlock()

	queued := 0
	for _, tenantID := range tenantIDs {
		if err := c.scheduler.ScheduleTenant(tenantID, now); err != nil {
			c.logger.Error("Failed to schedule tenant jobs",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		queued++
	}

	c.logger.Info("Tenant jobs scheduled",
		zap.Int("tenant_count", len(tenantIDs)),
		zap.Int("queued", queued),
	)
	return queued
}

// TriggerTenant queues jobs for one tenant right away
func (c *CronTrigger) TriggerTenant(tenantID uuid.UUID) error {
	return c.scheduler.ScheduleTenant(tenantID, c.now())
}

// LastRunAt returns when tenants were last queued
func (c *CronTrigger) LastRunAt() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRunAt
}
