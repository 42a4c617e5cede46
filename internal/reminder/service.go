// Package reminder watches the weekly schedule and notifies the user
// shortly before the store's next opening.
package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"storehours/internal/events"
	"storehours/internal/hours"
	"storehours/internal/metrics"
	"storehours/internal/storeapi"
)

// ScheduleSource supplies the current weekly schedule snapshot.
type ScheduleSource interface {
	StoreTimes(ctx context.Context) ([]hours.WeeklyEntry, storeapi.Source, error)
}

// Notifier delivers the opening reminder.
type Notifier interface {
	NotifyOpening(ctx context.Context, opening time.Time) error
}

// Config holds configuration for the reminder service.
type Config struct {
	// Timezone the schedule is anchored to. Default: America/New_York.
	Timezone string
	// LeadTime is how long before opening the reminder fires.
	// Default: 1 hour.
	LeadTime time.Duration
	// CheckInterval is how often the next opening is recomputed.
	// Default: 1 minute.
	CheckInterval time.Duration
	// MaxRetries is how many times a failed notification is retried.
	MaxRetries int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timezone:      "America/New_York",
		LeadTime:      time.Hour,
		CheckInterval: time.Minute,
		MaxRetries:    3,
	}
}

// Service periodically resolves the next opening and fires the
// reminder once per opening instant.
type Service struct {
	config   Config
	source   ScheduleSource
	notifier Notifier
	limiter  *RateLimiter
	location *time.Location
	logger   *zerolog.Logger
	bus      *events.Bus

	clock func() time.Time

	mu           sync.Mutex
	lastNotified time.Time // opening instant already reminded about
	running      bool

	kickCh chan struct{}
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewService creates a reminder service.
func NewService(config Config, source ScheduleSource, notifier Notifier, logger *zerolog.Logger) (*Service, error) {
	if config.Timezone == "" {
		config.Timezone = "America/New_York"
	}
	if config.LeadTime == 0 {
		config.LeadTime = time.Hour
	}
	if config.CheckInterval == 0 {
		config.CheckInterval = time.Minute
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, err
	}

	return &Service{
		config:   config,
		source:   source,
		notifier: notifier,
		limiter:  NewRateLimiter(DefaultRateLimiterConfig()),
		location: loc,
		logger:   logger,
		clock:    time.Now,
		kickCh:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}, nil
}

// UseEventBus re-checks immediately whenever the schedule is refreshed
// and announces sent reminders.
func (s *Service) UseEventBus(bus *events.Bus) {
	s.bus = bus
	bus.Subscribe(events.TypeScheduleRefreshed, func(events.Event) {
		select {
		case s.kickCh <- struct{}{}:
		default:
		}
	})
}

// Start begins the check loop.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info().
		Str("timezone", s.config.Timezone).
		Dur("lead_time", s.config.LeadTime).
		Msg("reminder service started")

	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop gracefully stops the service.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info().Msg("reminder service stopped")
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()

	s.CheckNow(ctx)

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-s.kickCh:
			s.CheckNow(ctx)
		case <-ticker.C:
			s.CheckNow(ctx)
		}
	}
}

// CheckNow resolves the next opening and sends the reminder if the
// current instant falls inside the lead window. Exported for tests and
// manual triggering.
func (s *Service) CheckNow(ctx context.Context) {
	now := s.clock().In(s.location)

	schedule, _, err := s.source.StoreTimes(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("reminder: fetch schedule")
		return
	}

	opening, ok := hours.NextOpening(schedule, now)
	if !ok {
		s.logger.Debug().Msg("reminder: no opening within a week")
		return
	}

	remindAt := opening.Add(-s.config.LeadTime)
	if now.Before(remindAt) {
		return
	}
	// Reminding after the door is already open is pointless.
	if !now.Before(opening) {
		return
	}

	s.mu.Lock()
	alreadySent := s.lastNotified.Equal(opening)
	s.mu.Unlock()
	if alreadySent {
		return
	}

	if err := s.send(ctx, opening); err != nil {
		s.logger.Error().Err(err).Time("opening", opening).Msg("reminder: send failed")
		metrics.IncReminderSent("failed")
		return
	}

	s.mu.Lock()
	s.lastNotified = opening
	s.mu.Unlock()

	metrics.IncReminderSent("sent")
	if s.bus != nil {
		s.bus.Publish(events.Event{Type: events.TypeReminderSent})
	}
	s.logger.Info().Time("opening", opening).Msg("opening reminder sent")
}

func (s *Service) send(ctx context.Context, opening time.Time) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if lastErr = s.notifier.NotifyOpening(ctx, opening); lastErr == nil {
			return nil
		}
		s.logger.Warn().Err(lastErr).Int("attempt", attempt+1).Msg("reminder: notify retry")
	}
	return lastErr
}
