package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	logx "announcer/pkg/logx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertByName(t *testing.T) {
	s := New(Config{}, logx.Nop())
	noop := func(context.Context) error { return nil }

	_, err := s.AddInterval("rotation", time.Minute, 0, noop)
	require.NoError(t, err)
	_, err = s.AddInterval("rotation", 2*time.Minute, 0, noop)
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "@every 2m0s", snap[0].Spec)

	assert.True(t, s.Remove("rotation"))
	assert.False(t, s.Remove("rotation"))
	assert.Empty(t, s.Snapshot())
}

func TestRejectsBadInput(t *testing.T) {
	s := New(Config{}, logx.Nop())
	noop := func(context.Context) error { return nil }

	_, err := s.AddInterval("x", 0, 0, noop)
	assert.Error(t, err)
	_, err = s.AddInterval(" ", time.Second, 0, noop)
	assert.Error(t, err)
	_, err = s.AddInterval("x", time.Second, 0, nil)
	assert.Error(t, err)
}

func TestIntervalFires(t *testing.T) {
	s := New(Config{Timezone: "UTC"}, logx.Nop())
	var n atomic.Int32
	_, err := s.AddInterval("tick", time.Second, time.Second, func(ctx context.Context) error {
		n.Add(1)
		return nil
	})
	require.NoError(t, err)

	s.Start(context.Background())
	defer s.Stop(context.Background())

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.False(t, snap[0].Next.IsZero())

	require.Eventually(t, func() bool { return n.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestStopKeepsDefinitions(t *testing.T) {
	s := New(Config{}, logx.Nop())
	_, err := s.AddInterval("rotation", time.Hour, time.Minute, func(context.Context) error { return nil })
	require.NoError(t, err)

	s.Start(context.Background())
	s.Stop(context.Background())
	require.Len(t, s.Snapshot(), 1)
	assert.True(t, s.Snapshot()[0].Next.IsZero())
}
