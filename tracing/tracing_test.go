package tracing_test

import (
	"testing"
	"time"

	"github.com/archonkit/archon/topology"
	"github.com/archonkit/archon/tracing"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNoopDiscardsEverything(t *testing.T) {
	var tr tracing.Tracer = tracing.Noop{}
	ctx := tr.StartCycle()
	tr.EndCycle(ctx)
	tr.MarkRunnable(topology.Node{Kind: topology.SendSystem, Index: 0})
	tr.StealReturnPending(tracing.MainThread)
}

func TestLogWritesAtConfiguredLevel(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	tr := tracing.NewLog(logger, zap.NewAtomicLevelAt(zap.InfoLevel))

	ctx := tr.StartCycle()
	time.Sleep(time.Millisecond)
	tr.EndCycle(ctx)

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "cycle start", entries[0].Message)
	assert.Equal(t, "cycle end", entries[1].Message)
}

func TestLogSuppressesBelowConfiguredLevel(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	tr := tracing.NewLog(logger, zap.NewAtomicLevelAt(zap.ErrorLevel))

	ctx := tr.StartCycle()
	tr.EndCycle(ctx)

	assert.Empty(t, logs.All())
}

func TestAggregateFansOutAndPreservesPerChildElapsed(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	log1 := tracing.NewLog(logger, zap.NewAtomicLevelAt(zap.InfoLevel))
	log2 := tracing.NewLog(logger, zap.NewAtomicLevelAt(zap.InfoLevel))

	agg := tracing.Aggregate{log1, log2}
	ctx := agg.StartCycle()
	time.Sleep(time.Millisecond)
	agg.EndCycle(ctx)

	entries := logs.All()
	assert.Len(t, entries, 4)
	for _, e := range entries[2:] {
		assert.Equal(t, "cycle end", e.Message)
		assert.GreaterOrEqual(t, e.ContextMap()["elapsed"], time.Millisecond)
	}
}
