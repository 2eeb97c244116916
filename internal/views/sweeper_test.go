package views

import (
	"context"
	"testing"
	"time"

	"github.com/ashureev/hms-console/internal/backend"
	"github.com/ashureev/hms-console/internal/fetch"
	"github.com/ashureev/hms-console/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepIdleTabs(t *testing.T) {
	_, client := newFakeBackend(t, map[string]string{"GET " + backend.PathMessages: `{"success":true,"message":[]}`})
	reg := NewRegistry(Deps{Gate: session.NewGate(signedIn()), Fetcher: fetch.New(client, nil), Putter: client})

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := reg.Activate(ctx, "old", NameMessages)
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	_, err = reg.Activate(ctx, "fresh", NameMessages)
	require.NoError(t, err)

	now = now.Add(15 * time.Minute)
	var evicted []string
	n := sweepIdleTabs(reg, 30*time.Minute, func(tabID string) { evicted = append(evicted, tabID) })

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"old"}, evicted)
	_, ok := reg.Active("fresh")
	assert.True(t, ok)
	_, ok = reg.Active("old")
	assert.False(t, ok)
}

func TestActiveRefreshesLastSeen(t *testing.T) {
	_, client := newFakeBackend(t, map[string]string{"GET " + backend.PathMessages: `{"success":true,"message":[]}`})
	reg := NewRegistry(Deps{Gate: session.NewGate(signedIn()), Fetcher: fetch.New(client, nil), Putter: client})

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	_, err := reg.Activate(context.Background(), "tab", NameMessages)
	require.NoError(t, err)

	now = now.Add(25 * time.Minute)
	_, ok := reg.Active("tab")
	require.True(t, ok)

	now = now.Add(25 * time.Minute)
	assert.Zero(t, sweepIdleTabs(reg, 30*time.Minute, nil))
}

func TestStartIdleSweeperStopsWithContext(t *testing.T) {
	reg := NewRegistry(Deps{Gate: session.NewGate(signedIn())})
	ctx, cancel := context.WithCancel(context.Background())
	StartIdleSweeper(ctx, reg, time.Millisecond, time.Minute, nil)
	time.Sleep(5 * time.Millisecond)
	cancel()
}
