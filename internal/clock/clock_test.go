package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_Now(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	result := c.Now()
	after := time.Now()

	assert.False(t, result.Before(before), "RealClock.Now() should not be before the call")
	assert.False(t, result.After(after), "RealClock.Now() should not be after the call")
}

func TestRealClock_Since(t *testing.T) {
	c := RealClock{}
	start := c.Now().Add(-time.Second)
	assert.GreaterOrEqual(t, c.Since(start), time.Second)
}

func TestMockClock_Now(t *testing.T) {
	fixedTime := time.Date(2024, 6, 15, 8, 30, 0, 0, time.UTC)
	c := NewMockClock(fixedTime)

	assert.Equal(t, fixedTime, c.Now())
	// Should return the same time on repeated calls
	assert.Equal(t, fixedTime, c.Now())
	assert.Equal(t, time.Duration(0), c.Since(fixedTime))
}

func TestMockClock_Set(t *testing.T) {
	initialTime := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	newTime := time.Date(2024, 12, 25, 12, 0, 0, 0, time.UTC)

	c := NewMockClock(initialTime)
	assert.Equal(t, initialTime, c.Now())

	c.Set(newTime)
	assert.Equal(t, newTime, c.Now())
}

func TestMockClock_Advance(t *testing.T) {
	initialTime := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	c := NewMockClock(initialTime)

	c.Advance(1 * time.Hour)
	assert.Equal(t, time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC), c.Now())
	assert.Equal(t, time.Hour, c.Since(initialTime))

	// go back in time
	c.Advance(-30 * time.Minute)
	assert.Equal(t, time.Date(2024, 6, 15, 8, 30, 0, 0, time.UTC), c.Now())
}

func TestSteppingMockClock(t *testing.T) {
	initialTime := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	c := NewSteppingMockClock(initialTime, 5*time.Millisecond)

	start := c.Now()
	assert.Equal(t, initialTime, start)
	assert.Equal(t, 5*time.Millisecond, c.Since(start))
	assert.Equal(t, 5*time.Millisecond, c.Since(start), "Since does not advance")
}

// TestMockClock_ConcurrentAccess verifies thread-safety of MockClock.
// Run with '-race' flag to detect race conditions.
func TestMockClock_ConcurrentAccess(t *testing.T) {
	initialTime := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	c := NewSteppingMockClock(initialTime, time.Nanosecond)

	const goroutines = 50
	const iterations = 100

	var wg sync.WaitGroup
	wg.Add(goroutines * 2)

	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				_ = c.Since(c.Now())
			}
		}()
	}

	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				c.Advance(time.Millisecond)
			}
		}()
	}

	wg.Wait()
	_ = c.Now()
}
