package cli

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/client/models"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	fail  atomic.Bool
	calls atomic.Int32
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.calls.Add(1)
	if p.fail.Load() {
		return errors.New("unreachable")
	}
	return nil
}

func TestGetStatus(t *testing.T) {
	ta := newTestApp(readerFromLines())
	require.Equal(t, "", ta.getStatus())

	ta.setMode(ModeOnline)
	require.Equal(t, "(online)", ta.getStatus())

	ta.sessions.identity = &models.Identity{ID: "u1", Email: "ann@example.com"}
	ta.setMode(ModeOffline)
	require.Equal(t, "(ann@example.com offline)", ta.getStatus())
}

func TestCheckOnline_FlipsMode(t *testing.T) {
	ta := newTestApp(readerFromLines())
	p := &fakePinger{}
	ta.pinger = p

	ta.checkOnline(context.Background())
	require.Equal(t, ModeOnline, ta.mode())

	p.fail.Store(true)
	ta.checkOnline(context.Background())
	require.Equal(t, ModeOffline, ta.mode())
}

func TestStartOnlineStatusWatcher_StopsOnCancel(t *testing.T) {
	ta := newTestApp(readerFromLines())
	p := &fakePinger{}
	ta.pinger = p

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ta.StartOnlineStatusWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return p.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	require.Equal(t, ModeOnline, ta.mode())
}

func TestStartOnlineStatusWatcher_DisabledInterval(t *testing.T) {
	ta := newTestApp(readerFromLines())
	p := &fakePinger{}
	ta.pinger = p

	ta.StartOnlineStatusWatcher(context.Background(), 0)
	require.Zero(t, p.calls.Load())
}

func TestAlertPrintsNotice(t *testing.T) {
	ta := newTestApp(readerFromLines())
	ta.alert(context.Background(), "There was a problem getting data")
	require.Equal(t, "\n!!! There was a problem getting data\n", ta.out.String())
}
