// Package schedule decides when outbound calls may happen: working
// hours, holidays, lunch breaks, per-niche optimal hours, and call
// distribution planning.
package schedule

import (
	"time"

	"go.uber.org/zap"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/clock"
)

const (
	// nextWorkingProbeHours bounds the hour-by-hour probe in
	// NextWorkingTime before the fallback kicks in.
	nextWorkingProbeHours = 14 * 24

	// optimalLookaheadDays bounds how far OptimalCallTimes walks.
	optimalLookaheadDays = 30

	// callSpacing separates consecutive calls within one hour slot.
	callSpacing = 3 * time.Minute
)

// LunchWindow is a daily no-call window, hours in the scheduler's
// timezone. Start inclusive, end exclusive.
type LunchWindow struct {
	StartHour int
	EndHour   int
}

// Holiday is a recurring calendar date treated as non-working
// regardless of weekday.
type Holiday struct {
	Month time.Month
	Day   int
}

// DefaultHolidays are observed when a tenant configures none.
var DefaultHolidays = []Holiday{
	{time.January, 1},
	{time.July, 4},
	{time.November, 28},
	{time.December, 25},
	{time.December, 31},
}

// Config describes one tenant's calling window. Immutable once a
// Scheduler is built from it.
type Config struct {
	WorkingDays   []time.Weekday
	StartHour     int
	StartMinute   int
	EndHour       int
	EndMinute     int
	Timezone      string
	CallsPerHour  int
	MaxConcurrent int
	Lunch         *LunchWindow
	Holidays      []Holiday
}

// DefaultConfig is the platform-wide calling window: Mon-Fri
// 09:00-18:00 local, lunch 12-13, ten calls per hour.
func DefaultConfig() Config {
	return Config{
		WorkingDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		StartHour:     9,
		EndHour:       18,
		Timezone:      "UTC",
		CallsPerHour:  10,
		MaxConcurrent: 3,
		Lunch:         &LunchWindow{StartHour: 12, EndHour: 13},
		Holidays:      DefaultHolidays,
	}
}

// Scheduler is pure time-window logic plus a small deferred-task
// runner. Safe for concurrent use.
type Scheduler struct {
	cfg      Config
	loc      *time.Location
	days     map[time.Weekday]bool
	holidays map[[2]int]bool // month, day
	clock    clock.Clock
	logger   *zap.Logger

	deferred *deferredRunner
}

// New builds a Scheduler from cfg. Malformed pieces of the config
// fall back to the defaults instead of failing: an unknown timezone
// becomes UTC, an empty day set becomes Mon-Fri, a non-positive rate
// becomes the default cap.
func New(cfg Config, clk clock.Clock, logger *zap.Logger) *Scheduler {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil || cfg.Timezone == "" {
		if cfg.Timezone != "" {
			logger.Warn("unknown timezone, falling back to UTC",
				zap.String("timezone", cfg.Timezone))
		}
		loc = time.UTC
		cfg.Timezone = "UTC"
	}
	if len(cfg.WorkingDays) == 0 {
		cfg.WorkingDays = def.WorkingDays
	}
	if cfg.StartHour == 0 && cfg.EndHour == 0 {
		cfg.StartHour, cfg.StartMinute = def.StartHour, def.StartMinute
		cfg.EndHour, cfg.EndMinute = def.EndHour, def.EndMinute
	}
	if cfg.CallsPerHour <= 0 {
		cfg.CallsPerHour = def.CallsPerHour
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.Holidays == nil {
		cfg.Holidays = DefaultHolidays
	}

	days := make(map[time.Weekday]bool, len(cfg.WorkingDays))
	for _, d := range cfg.WorkingDays {
		days[d] = true
	}
	holidays := make(map[[2]int]bool, len(cfg.Holidays))
	for _, h := range cfg.Holidays {
		holidays[[2]int{int(h.Month), h.Day}] = true
	}

	return &Scheduler{
		cfg:      cfg,
		loc:      loc,
		days:     days,
		holidays: holidays,
		clock:    clk,
		logger:   logger,
		deferred: newDeferredRunner(clk),
	}
}

// Config returns the scheduler's (immutable) configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// Location returns the scheduler's timezone.
func (s *Scheduler) Location() *time.Location { return s.loc }

// IsWorkingTime reports whether calls may be placed at t. All checks
// run in the scheduler's timezone; the window is inclusive of both
// the start and end minute.
func (s *Scheduler) IsWorkingTime(t time.Time) bool {
	lt := t.In(s.loc)
	if !s.days[lt.Weekday()] {
		return false
	}
	if s.holidays[[2]int{int(lt.Month()), lt.Day()}] {
		return false
	}
	m := lt.Hour()*60 + lt.Minute()
	if m < s.startMinuteOfDay() || m > s.endMinuteOfDay() {
		return false
	}
	if s.cfg.Lunch != nil {
		if lt.Hour() >= s.cfg.Lunch.StartHour && lt.Hour() < s.cfg.Lunch.EndHour {
			return false
		}
	}
	return true
}

// NextWorkingTime returns from unchanged if it is already inside the
// window, otherwise the first hour-aligned working timestamp found by
// probing forward hour by hour for up to fourteen days. If the probe
// is exhausted (a degenerate config) it falls back to the window
// start on the following day.
func (s *Scheduler) NextWorkingTime(from time.Time) time.Time {
	if s.IsWorkingTime(from) {
		return from
	}
	lt := from.In(s.loc)
	candidate := time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), 0, 0, 0, s.loc).
		Add(time.Hour)
	for i := 0; i < nextWorkingProbeHours; i++ {
		if s.IsWorkingTime(candidate) {
			return candidate
		}
		candidate = candidate.Add(time.Hour)
	}
	next := lt.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(),
		s.cfg.StartHour, s.cfg.StartMinute, 0, 0, s.loc)
}

// OptimalCallTimes plans up to count call slots for a niche starting
// no earlier than startFrom. Calls land on the niche's best hours of
// each working day, spaced three minutes apart within the hour, never
// exceeding the per-hour rate. The walk gives up after thirty days.
//
// A niche's best days are advisory only: once the lookahead window is
// in play every working day is eligible, best day or not.
func (s *Scheduler) OptimalCallTimes(niche string, count int, startFrom time.Time) []time.Time {
	if count <= 0 {
		return nil
	}
	prof := profileFor(niche)

	perSlot := count / (len(prof.BestHours) * 5)
	if perSlot < 1 {
		perSlot = 1
	}
	if perSlot > s.cfg.CallsPerHour {
		perSlot = s.cfg.CallsPerHour
	}
	// The spacing only fits so many slots before time.Date would
	// normalize minute 60+ into the next hour.
	if maxSlots := 60 / int(callSpacing.Minutes()); perSlot > maxSlots {
		perSlot = maxSlots
	}

	start := startFrom.In(s.loc)
	var out []time.Time
	for d := 0; d < optimalLookaheadDays && len(out) < count; d++ {
		day := start.AddDate(0, 0, d)
		for _, h := range prof.BestHours {
			for i := 0; i < perSlot && len(out) < count; i++ {
				slot := time.Date(day.Year(), day.Month(), day.Day(),
					h, i*int(callSpacing.Minutes()), 0, 0, s.loc)
				if slot.Before(start) {
					continue
				}
				if !s.IsWorkingTime(slot) {
					continue
				}
				out = append(out, slot)
			}
		}
	}
	return out
}

// DayPlan is one day's hourly call budget. Every hour 0-23 is
// present; hours outside the working window stay zero so consumers
// see a complete grid.
type DayPlan struct {
	Date  time.Time
	Hours [24]int
	Total int
}

// DistributeCalls spreads totalCalls across the next days calendar
// days, capping each day at min(totalCalls/days, callsPerHour*8) and
// each hour at the per-hour rate. The niche's best hours are filled
// first so an under-budget day lands its calls where they convert
// best.
func (s *Scheduler) DistributeCalls(totalCalls, days int, niche string) []DayPlan {
	if days <= 0 || totalCalls <= 0 {
		return nil
	}
	dailyLimit := totalCalls / days
	if cap := s.cfg.CallsPerHour * 8; dailyLimit > cap {
		dailyLimit = cap
	}

	prof := profileFor(niche)
	hourOrder := s.hourWalkOrder(prof)

	now := s.clock.Now().In(s.loc)
	remaining := totalCalls
	plans := make([]DayPlan, 0, days)
	for d := 0; d < days; d++ {
		day := now.AddDate(0, 0, d)
		plan := DayPlan{
			Date: time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc),
		}
		if s.isWorkingDay(plan.Date) {
			budget := dailyLimit
			if budget > remaining {
				budget = remaining
			}
			for _, h := range hourOrder {
				if budget <= 0 {
					break
				}
				n := s.cfg.CallsPerHour
				if n > budget {
					n = budget
				}
				plan.Hours[h] = n
				plan.Total += n
				budget -= n
				remaining -= n
			}
		}
		plans = append(plans, plan)
	}
	return plans
}

// hourWalkOrder returns the business hours of one day, best hours
// first, lunch excluded.
func (s *Scheduler) hourWalkOrder(prof NicheProfile) []int {
	seen := make(map[int]bool)
	var order []int
	add := func(h int) {
		if seen[h] || h < s.cfg.StartHour || h >= s.cfg.EndHour {
			return
		}
		if s.cfg.Lunch != nil && h >= s.cfg.Lunch.StartHour && h < s.cfg.Lunch.EndHour {
			return
		}
		seen[h] = true
		order = append(order, h)
	}
	for _, h := range prof.BestHours {
		add(h)
	}
	for h := s.cfg.StartHour; h < s.cfg.EndHour; h++ {
		add(h)
	}
	return order
}

func (s *Scheduler) isWorkingDay(day time.Time) bool {
	lt := day.In(s.loc)
	if !s.days[lt.Weekday()] {
		return false
	}
	return !s.holidays[[2]int{int(lt.Month()), lt.Day()}]
}

func (s *Scheduler) startMinuteOfDay() int {
	return s.cfg.StartHour*60 + s.cfg.StartMinute
}

func (s *Scheduler) endMinuteOfDay() int {
	return s.cfg.EndHour*60 + s.cfg.EndMinute
}
