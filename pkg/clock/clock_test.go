package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystem(t *testing.T) {
	before := time.Now().UTC()
	now, err := System{}.Now(context.Background())
	after := time.Now().UTC()

	require.NoError(t, err)
	assert.Equal(t, time.UTC, now.Location(), "system time should be UTC")
	assert.False(t, now.Before(before), "reading should not predate the call")
	assert.False(t, now.After(after), "reading should not postdate the call")
}

func TestNTPUnreachable(t *testing.T) {
	// A reserved-for-documentation address; queries can never succeed, so
	// this exercises the retry loop giving up at the deadline.
	n := &NTP{Server: "192.0.2.1", Timeout: 500 * time.Millisecond}

	start := time.Now()
	_, err := n.Now(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get time from 192.0.2.1")
	assert.Less(t, elapsed, 10*time.Second, "should give up at the deadline, not hang")
}

func TestNTPCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := &NTP{Server: "192.0.2.1", Timeout: time.Minute}
	_, err := n.Now(ctx)
	require.Error(t, err)
}
