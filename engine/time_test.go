package engine_test

import (
	"testing"
	"time"

	"github.com/warp/finance-engine/engine"
)

func TestAddMonthsClamped(t *testing.T) {
	cases := []struct {
		from   engine.TimePoint
		months int
		want   engine.TimePoint
	}{
		// Anniversary day exists: behaves like a plain month add.
		{date(2025, time.January, 15), 1, date(2025, time.February, 15)},
		{date(2025, time.February, 1), -1, date(2025, time.January, 1)},
		// Day 31 into shorter months clamps instead of spilling over.
		{date(2025, time.January, 31), 1, date(2025, time.February, 28)},
		{date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{date(2025, time.January, 31), 3, date(2025, time.April, 30)},
		{date(2025, time.March, 31), -1, date(2025, time.February, 28)},
		// Year boundaries.
		{date(2025, time.October, 31), 4, date(2026, time.February, 28)},
	}
	for _, c := range cases {
		if got := c.from.AddMonthsClamped(c.months); !got.Equal(c.want) {
			t.Errorf("%s + %d months = %s, want %s", c.from, c.months, got, c.want)
		}
	}
}

func TestWholeMonthsBetween(t *testing.T) {
	cases := []struct {
		from, to engine.TimePoint
		want     int
	}{
		{date(2025, time.January, 15), date(2025, time.March, 14), 1},
		{date(2025, time.January, 15), date(2025, time.March, 15), 2},
		{date(2025, time.January, 15), date(2026, time.January, 1), 11},
		{date(2025, time.January, 1), date(2026, time.January, 1), 12},
		{date(2025, time.January, 1), date(2025, time.January, 1), 0},
	}
	for _, c := range cases {
		if got := engine.WholeMonthsBetween(c.from, c.to); got != c.want {
			t.Errorf("WholeMonthsBetween(%s, %s) = %d, want %d", c.from, c.to, got, c.want)
		}
	}
}
