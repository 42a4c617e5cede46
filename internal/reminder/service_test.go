package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storehours/internal/events"
	"storehours/internal/hours"
	"storehours/internal/storeapi"
)

type fakeSource struct {
	schedule []hours.WeeklyEntry
	err      error
}

func (f *fakeSource) StoreTimes(context.Context) ([]hours.WeeklyEntry, storeapi.Source, error) {
	return f.schedule, storeapi.SourceRemote, f.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	failures int
	sent     []time.Time
}

func (f *fakeNotifier) NotifyOpening(_ context.Context, opening time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("delivery failed")
	}
	f.sent = append(f.sent, opening)
	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func openEveryDay() []hours.WeeklyEntry {
	entries := make([]hours.WeeklyEntry, 0, 7)
	for dow := 0; dow < 7; dow++ {
		entries = append(entries, hours.WeeklyEntry{DayOfWeek: dow, Open: hours.Open, StartTime: "09:00", EndTime: "17:00"})
	}
	return entries
}

func newTestService(t *testing.T, source ScheduleSource, notifier Notifier, now time.Time) *Service {
	t.Helper()
	logger := zerolog.Nop()
	svc, err := NewService(Config{Timezone: "UTC"}, source, notifier, &logger)
	require.NoError(t, err)
	svc.clock = func() time.Time { return now }
	// No jitter in tests.
	svc.limiter = NewRateLimiter(RateLimiterConfig{Rate: 1000, Burst: 100})
	return svc
}

func TestCheckNowFiresInsideLeadWindow(t *testing.T) {
	notifier := &fakeNotifier{}
	// 08:30 with a 09:00 opening and a one-hour lead: inside the window.
	now := time.Date(2026, time.March, 1, 8, 30, 0, 0, time.UTC)
	svc := newTestService(t, &fakeSource{schedule: openEveryDay()}, notifier, now)

	svc.CheckNow(context.Background())

	require.Equal(t, 1, notifier.sentCount())
	assert.Equal(t, time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC), notifier.sent[0])
}

func TestCheckNowDedupesPerOpening(t *testing.T) {
	notifier := &fakeNotifier{}
	now := time.Date(2026, time.March, 1, 8, 30, 0, 0, time.UTC)
	svc := newTestService(t, &fakeSource{schedule: openEveryDay()}, notifier, now)

	ctx := context.Background()
	svc.CheckNow(ctx)
	svc.CheckNow(ctx)
	svc.CheckNow(ctx)

	assert.Equal(t, 1, notifier.sentCount())
}

func TestCheckNowTooEarly(t *testing.T) {
	notifier := &fakeNotifier{}
	// 07:30 is an hour and a half before opening; outside the window.
	now := time.Date(2026, time.March, 1, 7, 30, 0, 0, time.UTC)
	svc := newTestService(t, &fakeSource{schedule: openEveryDay()}, notifier, now)

	svc.CheckNow(context.Background())

	assert.Zero(t, notifier.sentCount())
}

func TestCheckNowAfterOpeningTargetsNextDay(t *testing.T) {
	notifier := &fakeNotifier{}
	// 10:00: today's opening already passed, next opening is tomorrow
	// 09:00, far outside the lead window.
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, &fakeSource{schedule: openEveryDay()}, notifier, now)

	svc.CheckNow(context.Background())

	assert.Zero(t, notifier.sentCount())
}

func TestCheckNowNeverOpenSchedule(t *testing.T) {
	notifier := &fakeNotifier{}
	now := time.Date(2026, time.March, 1, 8, 30, 0, 0, time.UTC)
	svc := newTestService(t, &fakeSource{schedule: nil}, notifier, now)

	svc.CheckNow(context.Background())

	assert.Zero(t, notifier.sentCount())
}

func TestCheckNowSourceError(t *testing.T) {
	notifier := &fakeNotifier{}
	now := time.Date(2026, time.March, 1, 8, 30, 0, 0, time.UTC)
	svc := newTestService(t, &fakeSource{err: errors.New("backend down")}, notifier, now)

	svc.CheckNow(context.Background())

	assert.Zero(t, notifier.sentCount())
}

func TestSendRetriesTransientFailure(t *testing.T) {
	notifier := &fakeNotifier{failures: 1}
	now := time.Date(2026, time.March, 1, 8, 30, 0, 0, time.UTC)
	svc := newTestService(t, &fakeSource{schedule: openEveryDay()}, notifier, now)

	svc.CheckNow(context.Background())

	assert.Equal(t, 1, notifier.sentCount())
}

func TestScheduleRefreshKicksCheck(t *testing.T) {
	notifier := &fakeNotifier{}
	now := time.Date(2026, time.March, 1, 8, 30, 0, 0, time.UTC)
	svc := newTestService(t, &fakeSource{schedule: openEveryDay()}, notifier, now)

	bus := events.NewBus()
	svc.UseEventBus(bus)
	bus.Publish(events.Event{Type: events.TypeScheduleRefreshed})

	select {
	case <-svc.kickCh:
	default:
		t.Fatal("schedule refresh did not queue a re-check")
	}
}

type fakeSender struct {
	messages []tgbotapi.Chattable
	err      error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.messages = append(f.messages, c)
	return tgbotapi.Message{}, nil
}

func TestTelegramNotifier(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewTelegramNotifierWithSender(sender, 42)

	opening := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, notifier.NotifyOpening(context.Background(), opening))

	require.Len(t, sender.messages, 1)
	msg, ok := sender.messages[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.EqualValues(t, 42, msg.ChatID)
	assert.Contains(t, msg.Text, "9:00 AM")
	assert.Contains(t, msg.Text, "Monday, Mar 2")

	sender.err = errors.New("blocked")
	assert.Error(t, notifier.NotifyOpening(context.Background(), opening))
}
