package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeClock_TickerFiresOnAdvance(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	ticker := clock.NewTicker(24 * time.Hour)
	require.True(t, clock.WaitForTickers(1, time.Second))

	clock.Advance(23 * time.Hour)
	select {
	case <-ticker.C():
		t.Fatal("ticker fired early")
	default:
	}

	clock.Advance(time.Hour)
	select {
	case got := <-ticker.C():
		assert.Equal(t, start.Add(24*time.Hour), got)
	default:
		t.Fatal("ticker did not fire")
	}

	ticker.Stop()
	clock.Advance(48 * time.Hour)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestCurrentYear(t *testing.T) {
	clock := NewFakeClock(time.Date(2031, 12, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, 2031, CurrentYear(clock))
	clock.Advance(time.Hour)
	assert.Equal(t, 2032, CurrentYear(clock))
	assert.Equal(t, time.Date(2032, 1, 1, 0, 0, 0, 0, time.UTC), StartOfYear(2032))
}
