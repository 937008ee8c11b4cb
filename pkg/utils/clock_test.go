package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock(t *testing.T) {
	c := NewRealClock()
	before := time.Now()
	now := c.Now()
	assert.False(t, now.Before(before))
	assert.GreaterOrEqual(t, c.Since(before), time.Duration(0))
}

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now())

	c.Advance(5 * time.Second)
	assert.Equal(t, 5*time.Second, c.Since(start))

	later := start.Add(time.Hour)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestMockClock_Step(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	c.SetStep(10 * time.Millisecond)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(10*time.Millisecond), c.Now())
	assert.Equal(t, 20*time.Millisecond, c.Since(start))
}

func TestClockInterface(t *testing.T) {
	var _ Clock = NewRealClock()
	var _ Clock = NewMockClock(time.Now())
}
