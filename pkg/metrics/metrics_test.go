package metrics_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateforward/go-asm"
	"github.com/stateforward/go-asm/pkg/metrics"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	require.NoError(t, err)

	ready := func(asm.Context) asm.Result {
		return asm.Sync(true)
	}
	machine := asm.MustNew(context.Background(), asm.Config{
		State: "idle",
		Graph: []asm.StateConfig{
			{State: "idle", To: []asm.TransitionConfig{{State: "loading", Condition: ready}}},
			{State: "loading", To: []asm.TransitionConfig{{
				State:     "ready",
				Condition: ready,
				After: func(asm.Context) asm.Result {
					return asm.Async(func() (bool, error) {
						return false, errors.New("boom")
					})
				},
			}}},
			{State: "ready"},
		},
	}, asm.WithTrace(collector.Trace()))

	_, err = machine.Waterfall().Wait()
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Transitions.WithLabelValues("idle", "loading", metrics.StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Transitions.WithLabelValues("loading", "ready", metrics.StatusFailed)))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.Duration))
	// every event of the first transition and the first seven of the second
	assert.Equal(t, 7.0, testutil.ToFloat64(collector.Emissions.WithLabelValues("global_event", metrics.StatusOK)))
	assert.Equal(t, 4.0, testutil.ToFloat64(collector.Emissions.WithLabelValues("state_event", metrics.StatusOK)))
	assert.Equal(t, 3.0, testutil.ToFloat64(collector.Emissions.WithLabelValues("transition_event", metrics.StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Emissions.WithLabelValues("transition_event", metrics.StatusFailed)))
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New(reg)
	require.NoError(t, err)
	_, err = metrics.New(reg)
	assert.Error(t, err)
}

func TestMustNew(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.MustNew()
	})
	assert.Panics(t, func() {
		metrics.MustNew()
	}, "already registered with the default registerer")
}
