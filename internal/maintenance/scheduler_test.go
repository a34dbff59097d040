package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	mu    sync.Mutex
	calls []time.Time
	n     int64
	err   error
}

func (f *fakeSweeper) DeleteExpiredPages(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.n, f.err
}

func (f *fakeSweeper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestNew_Schedules(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"default", "", false},
		{"descriptor", "@every 30m", false},
		{"standard", "0 * * * *", false},
		{"garbage", "every hour please", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&fakeSweeper{}, tt.schedule)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "parse schedule")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSweepPages(t *testing.T) {
	sw := &fakeSweeper{n: 3}
	s, err := New(sw, "")
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	n, err := s.SweepPages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []time.Time{fixed}, sw.calls)
}

func TestSweepPages_Error(t *testing.T) {
	s, err := New(&fakeSweeper{err: errors.New("db gone")}, "")
	require.NoError(t, err)

	_, err = s.SweepPages(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db gone")
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	sw := &fakeSweeper{}
	s, err := New(sw, "@every 1s")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return sw.count() >= 1 }, 5*time.Second, 50*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
