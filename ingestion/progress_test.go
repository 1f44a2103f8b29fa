package ingestion

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_GrowingTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 0, 10)
	tracker.Start()

	tracker.AddTotal(15)
	assert.False(t, tracker.Increment(5))
	assert.Empty(t, buf.String())

	assert.True(t, tracker.Increment(5))
	assert.Contains(t, buf.String(), "10/15")

	tracker.AddTotal(15)
	tracker.Increment(20)
	assert.Contains(t, buf.String(), "30/30")
	assert.Contains(t, buf.String(), "100.0%")
	assert.Equal(t, 30, tracker.Current())
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 5)
	tracker.Start()

	tracker.Increment(50)
	assert.Equal(t, 10, tracker.Current())
	assert.NotContains(t, buf.String(), "50/")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 4, 100)
	tracker.Start()
	tracker.Increment(4)
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "4/4")
	assert.Contains(t, output, "\n")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 1)

	assert.False(t, tracker.Increment(5))
	tracker.Finish()
	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
}

func TestProgressTracker_NilWriter(t *testing.T) {
	tracker := NewProgressTracker(nil, 10, 2)
	tracker.Start()
	assert.NotPanics(t, func() {
		assert.True(t, tracker.Increment(2))
		tracker.Finish()
	})
}
