package metrics_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/roguepath/internal/metrics"
	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notify(c *metrics.Collector, t domain.EventType, score int) {
	e := domain.NewEvent(t, "g1")
	e.Score = score
	c.Notify(context.Background(), e)
}

func TestCollector_RunLifecycle(t *testing.T) {
	c := metrics.New()

	notify(c, domain.EventRunStarted, 0)
	notify(c, domain.EventRunStarted, 0)
	notify(c, domain.EventRunEnded, 120)
	notify(c, domain.EventRunFailed, 0)

	expected := `
# HELP roguepath_active_runs Room runs currently started and not yet settled
# TYPE roguepath_active_runs gauge
roguepath_active_runs 0
# HELP roguepath_runs_finished_total Room runs that reached a terminal state, by outcome
# TYPE roguepath_runs_finished_total counter
roguepath_runs_finished_total{outcome="failed"} 1
roguepath_runs_finished_total{outcome="succeeded"} 1
`
	err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected),
		"roguepath_active_runs", "roguepath_runs_finished_total")
	assert.NoError(t, err)

	count, err := testutil.GatherAndCount(c.Registry(), "roguepath_events_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "one series per event type")
}

func TestCollector_PathStates(t *testing.T) {
	c := metrics.New()
	notify(c, domain.EventPathCreated, 0)
	notify(c, domain.EventPathCompleted, 0)
	notify(c, domain.EventPathFailed, 0)
	notify(c, domain.EventGroupDisbanded, 0)

	count, err := testutil.GatherAndCount(c.Registry(), "roguepath_paths_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCollector_Handler(t *testing.T) {
	c := metrics.New()
	notify(c, domain.EventRunEnded, 40)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "roguepath_run_score_count 1")
	assert.Contains(t, string(body), `roguepath_events_total{type="run_ended"} 1`)
}
