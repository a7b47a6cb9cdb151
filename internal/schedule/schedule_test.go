package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/clock"
)

// 2025-03-10 is a Monday.
var testMonday = time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, cfg Config, now time.Time) *Scheduler {
	t.Helper()
	return New(cfg, clock.NewFake(now), nil)
}

func TestIsWorkingTime(t *testing.T) {
	s := newTestScheduler(t, DefaultConfig(), testMonday)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"monday mid-morning", time.Date(2025, time.March, 10, 10, 30, 0, 0, time.UTC), true},
		{"before opening", time.Date(2025, time.March, 10, 8, 59, 0, 0, time.UTC), false},
		{"opening minute", time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC), true},
		{"closing minute inclusive", time.Date(2025, time.March, 10, 18, 0, 0, 0, time.UTC), true},
		{"after closing", time.Date(2025, time.March, 10, 18, 1, 0, 0, time.UTC), false},
		{"lunch hour", time.Date(2025, time.March, 10, 12, 30, 0, 0, time.UTC), false},
		{"lunch end", time.Date(2025, time.March, 10, 13, 0, 0, 0, time.UTC), true},
		{"saturday", time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC), false},
		{"sunday", time.Date(2025, time.March, 16, 10, 0, 0, 0, time.UTC), false},
		{"new years day", time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC), false},
		{"christmas", time.Date(2025, time.December, 25, 10, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.IsWorkingTime(tc.at))
		})
	}
}

func TestIsWorkingTimeConvertsTimezone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "America/New_York"
	s := newTestScheduler(t, cfg, testMonday)

	// 14:00 UTC is 10:00 in New York in March (EDT).
	assert.True(t, s.IsWorkingTime(time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)))
	// 02:00 UTC Tuesday is 22:00 Monday in New York.
	assert.False(t, s.IsWorkingTime(time.Date(2025, time.March, 11, 2, 0, 0, 0, time.UTC)))
}

func TestNewFallsBackOnBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Not/AZone"
	cfg.WorkingDays = nil
	cfg.CallsPerHour = 0
	s := newTestScheduler(t, cfg, testMonday)

	assert.Equal(t, time.UTC, s.Location())
	// Mon-Fri defaults restored.
	assert.True(t, s.IsWorkingTime(time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)))
	assert.False(t, s.IsWorkingTime(time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, 10, s.Config().CallsPerHour)
}

func TestNextWorkingTime(t *testing.T) {
	s := newTestScheduler(t, DefaultConfig(), testMonday)

	t.Run("inside window returns input", func(t *testing.T) {
		at := time.Date(2025, time.March, 10, 10, 17, 0, 0, time.UTC)
		assert.Equal(t, at, s.NextWorkingTime(at))
	})

	t.Run("saturday rolls to monday", func(t *testing.T) {
		at := time.Date(2025, time.March, 15, 11, 30, 0, 0, time.UTC)
		got := s.NextWorkingTime(at)
		assert.Equal(t, time.Date(2025, time.March, 17, 9, 0, 0, 0, time.UTC), got)
	})

	t.Run("evening rolls to next morning", func(t *testing.T) {
		at := time.Date(2025, time.March, 10, 18, 30, 0, 0, time.UTC)
		got := s.NextWorkingTime(at)
		assert.Equal(t, time.Date(2025, time.March, 11, 9, 0, 0, 0, time.UTC), got)
	})

	t.Run("lunch rolls to one o'clock", func(t *testing.T) {
		at := time.Date(2025, time.March, 10, 12, 15, 0, 0, time.UTC)
		got := s.NextWorkingTime(at)
		assert.Equal(t, time.Date(2025, time.March, 10, 13, 0, 0, 0, time.UTC), got)
	})
}

func TestOptimalCallTimes(t *testing.T) {
	s := newTestScheduler(t, DefaultConfig(), testMonday)
	start := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	t.Run("small batch lands on best hours", func(t *testing.T) {
		got := s.OptimalCallTimes("unknown_niche", 3, start)
		require.Len(t, got, 3)
		assert.Equal(t, time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC), got[0])
		assert.Equal(t, time.Date(2025, time.March, 10, 11, 0, 0, 0, time.UTC), got[1])
		assert.Equal(t, time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC), got[2])
	})

	t.Run("every slot is a working time at or after start", func(t *testing.T) {
		got := s.OptimalCallTimes("dental", 40, start)
		require.NotEmpty(t, got)
		for _, at := range got {
			assert.True(t, s.IsWorkingTime(at), "slot %s outside working window", at)
			assert.False(t, at.Before(start))
		}
	})

	t.Run("zero count", func(t *testing.T) {
		assert.Nil(t, s.OptimalCallTimes("dental", 0, start))
	})

	t.Run("high per-hour rate stays sorted and within the hour", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CallsPerHour = 30
		fast := newTestScheduler(t, cfg, testMonday)

		got := fast.OptimalCallTimes("dental", 600, start)
		require.NotEmpty(t, got)

		perHour := make(map[time.Time]int)
		for i, at := range got {
			if i > 0 {
				assert.False(t, at.Before(got[i-1]), "slot %d (%s) precedes slot %d (%s)", i, at, i-1, got[i-1])
			}
			perHour[at.Truncate(time.Hour)]++
		}
		for hour, n := range perHour {
			assert.LessOrEqual(t, n, cfg.CallsPerHour, "hour %s", hour)
		}
	})
}

func TestDistributeCalls(t *testing.T) {
	s := newTestScheduler(t, DefaultConfig(), testMonday)

	t.Run("week of calls fills best hours first", func(t *testing.T) {
		plans := s.DistributeCalls(100, 5, "unknown_niche")
		require.Len(t, plans, 5)

		total := 0
		for _, p := range plans {
			total += p.Total
			assert.Equal(t, 20, p.Total)
			// 20 calls at 10/hour fill exactly the two best hours.
			assert.Equal(t, 10, p.Hours[10])
			assert.Equal(t, 10, p.Hours[11])
			assert.Equal(t, 0, p.Hours[12]) // lunch stays empty
		}
		assert.Equal(t, 100, total)
	})

	t.Run("weekend days get zero", func(t *testing.T) {
		plans := s.DistributeCalls(70, 7, "unknown_niche")
		require.Len(t, plans, 7)
		assert.Zero(t, plans[5].Total, "saturday")
		assert.Zero(t, plans[6].Total, "sunday")
	})

	t.Run("hourly budget never exceeds rate", func(t *testing.T) {
		plans := s.DistributeCalls(500, 5, "hvac")
		for _, p := range plans {
			for h, n := range p.Hours {
				assert.LessOrEqual(t, n, s.Config().CallsPerHour, "hour %d", h)
			}
		}
	})

	t.Run("degenerate input", func(t *testing.T) {
		assert.Nil(t, s.DistributeCalls(0, 5, "dental"))
		assert.Nil(t, s.DistributeCalls(10, 0, "dental"))
	})
}

func TestKnownNiche(t *testing.T) {
	assert.True(t, KnownNiche("dental"))
	assert.True(t, KnownNiche("law_firms"))
	assert.False(t, KnownNiche("submarine_repair"))
}
