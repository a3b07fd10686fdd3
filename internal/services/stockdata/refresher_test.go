package stockdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/stockscan/internal/models"
)

func TestRefresher_RunNowUsesCacheRule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.gateway.set("IBM", models.Ok(stock("IBM", "International Business Machines")))

	refresher := NewRefresher(env.loader, arbor.NewLogger())

	// Nothing selected: no-op
	refresher.RunNow()
	assert.Empty(t, env.loader.State().Symbol)
	assert.Equal(t, 0, env.gateway.callCount("IBM"))

	env.loader.Select(ctx, "IBM")
	require.Eventually(t, func() bool { return env.loader.State().Data != nil }, time.Second, 5*time.Millisecond)

	// Fresh entry: the refresh is served from cache
	refresher.RunNow()
	require.Eventually(t, func() bool {
		st := env.loader.State()
		return !st.Loading && st.Source == SourceCache
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, env.gateway.callCount("IBM"))

	// Stale entry: the refresh refetches
	env.clock.Advance(24 * time.Hour)
	refresher.RunNow()
	require.Eventually(t, func() bool {
		st := env.loader.State()
		return !st.Loading && st.Source == SourceUpstream && env.gateway.callCount("IBM") == 2
	}, time.Second, 5*time.Millisecond)
}

func TestRefresher_Schedule(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.set("IBM", models.Ok(stock("IBM", "International Business Machines")))
	env.loader.Select(context.Background(), "IBM")
	require.Eventually(t, func() bool { return env.loader.State().Data != nil }, time.Second, 5*time.Millisecond)
	updates, unsubscribe := env.loader.Subscribe()
	defer unsubscribe()

	refresher := NewRefresher(env.loader, arbor.NewLogger())
	require.NoError(t, refresher.Start(context.Background(), "@every 1s"))
	defer refresher.Stop()

	require.Error(t, refresher.Start(context.Background(), "@every 1s"), "double start")

	select {
	case st := <-updates:
		assert.Equal(t, "IBM", st.Symbol)
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled refresh did not start a load")
	}
}

func TestRefresher_InvalidSchedule(t *testing.T) {
	env := newTestEnv(t)
	refresher := NewRefresher(env.loader, arbor.NewLogger())

	assert.Error(t, refresher.Start(context.Background(), "whenever"))
	refresher.Stop()
}
