package services

import (
	"context"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultDailyTime = "07:00"
	schedulerTick    = 30 * time.Second
	// sendCooldown keeps two ticks inside the same minute from sending twice.
	sendCooldown = 61 * time.Second
)

var hhmm = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// DailySender is what the scheduler triggers once a day.
type DailySender interface {
	SendDailySummary(ctx context.Context, date string, recipients []string) (*DailySummaryResult, error)
}

// Scheduler sends yesterday's summary once a day at a fixed local time.
type Scheduler struct {
	sender   DailySender
	at       string
	loc      *time.Location
	log      *logrus.Entry
	lastSent time.Time
	now      func() time.Time
}

// NewScheduler falls back to 07:00 for an invalid time and to UTC for an unknown zone.
func NewScheduler(sender DailySender, at, timezone string, log *logrus.Logger) *Scheduler {
	entry := log.WithField("component", "scheduler")
	if !hhmm.MatchString(at) {
		entry.WithField("daily_time", at).Warn("invalid daily email time, using default")
		at = defaultDailyTime
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		entry.WithError(err).WithField("timezone", timezone).Warn("unknown report timezone, using UTC")
		loc = time.UTC
	}
	return &Scheduler{sender: sender, at: at, loc: loc, log: entry, now: time.Now}
}

// WithClock replaces the wall clock, for tests and replays.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// At is the effective HH:MM send time.
func (s *Scheduler) At() string { return s.at }

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.WithField("daily_time", s.at).Info("daily report scheduler started")
	t := time.NewTicker(schedulerTick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("daily report scheduler stopped")
			return
		case <-t.C:
			s.Tick(ctx)
		}
	}
}

// Tick sends when the local clock shows the configured minute and nothing
// was sent within the cooldown. It reports whether a send was attempted.
func (s *Scheduler) Tick(ctx context.Context) bool {
	now := s.now().In(s.loc)
	if now.Format("15:04") != s.at {
		return false
	}
	if !s.lastSent.IsZero() && now.Sub(s.lastSent) < sendCooldown {
		return false
	}
	s.lastSent = now
	date := now.AddDate(0, 0, -1).Format(dateLayout)
	if _, err := s.sender.SendDailySummary(ctx, date, nil); err != nil {
		s.log.WithError(err).WithField("date", date).Error("scheduled daily summary failed")
	}
	return true
}
