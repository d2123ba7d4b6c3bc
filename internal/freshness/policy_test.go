package freshness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)

func testPolicy() Policy {
	return Policy{Threshold: 24 * time.Hour, Now: func() time.Time { return fixedNow }}
}

func TestIsFresh_MissingStampIsStale(t *testing.T) {
	assert.False(t, testPolicy().IsFresh(time.Time{}))
}

func TestIsFresh_Boundaries(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"just stored", 0, true},
		{"ten hours", 10 * time.Hour, true},
		{"exactly threshold", 24 * time.Hour, true},
		{"one second past", 24*time.Hour + time.Second, false},
		{"thirty hours", 30 * time.Hour, false},
		{"two days ahead of the clock", -48 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsFresh(fixedNow.Add(-tt.age)))
		})
	}
}

func TestAnyFresh(t *testing.T) {
	p := testPolicy()

	assert.False(t, p.AnyFresh())
	assert.False(t, p.AnyFresh(fixedNow.Add(-48*time.Hour), time.Time{}))
	assert.True(t, p.AnyFresh(fixedNow.Add(-48*time.Hour), fixedNow.Add(-time.Hour)))
}

func TestAge(t *testing.T) {
	p := testPolicy()
	assert.Equal(t, time.Duration(-1), p.Age(time.Time{}))
	assert.Equal(t, 3*time.Hour, p.Age(fixedNow.Add(-3*time.Hour)))
}

func TestNewPolicy_DefaultsThreshold(t *testing.T) {
	p := NewPolicy(0)
	assert.Equal(t, DefaultThreshold, p.Threshold)
	assert.True(t, p.IsFresh(time.Now().Add(-time.Minute)))
}

func TestExists(t *testing.T) {
	assert.True(t, Exists(true))
	assert.False(t, Exists(false))
}
