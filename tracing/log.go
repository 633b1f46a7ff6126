package tracing

import (
	"time"

	"github.com/archonkit/archon/topology"
	"go.uber.org/zap"
)

// Log is a Tracer that writes events to a zap.Logger at info level, and
// writes nothing when its configured level is above info. Cycle start, each
// phase's end, and each scheduling notification produce one entry; the
// other Start methods write nothing. Each Start method's context carries the
// wall-clock instant the phase began so the matching End method can report
// elapsed duration.
type Log struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

// NewLog wraps logger, logging cycle/system boundaries whenever level
// enables info.
func NewLog(logger *zap.Logger, level zap.AtomicLevel) *Log {
	return &Log{logger: logger, level: level}
}

func (l *Log) log(msg string, fields ...zap.Field) {
	if !l.level.Enabled(zap.InfoLevel) {
		return
	}
	if ce := l.logger.Check(zap.InfoLevel, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (l *Log) StartCycle() any {
	l.log("cycle start")
	return time.Now()
}

func (l *Log) EndCycle(ctx any) {
	l.log("cycle end", zap.Duration("elapsed", elapsed(ctx)))
}

func (l *Log) StartPrepareEallocShards() any {
	return time.Now()
}

func (l *Log) EndPrepareEallocShards(ctx any) {
	l.log("prepared entity allocator shards", zap.Duration("elapsed", elapsed(ctx)))
}

func (l *Log) StartFlushEalloc(archetype string) any {
	return time.Now()
}

func (l *Log) EndFlushEalloc(ctx any, archetype string) {
	l.log("flushed entity allocator", zap.String("archetype", archetype), zap.Duration("elapsed", elapsed(ctx)))
}

func (l *Log) StartRunSend(thread Thread, node topology.Node, debugName string) any {
	return time.Now()
}

func (l *Log) EndRunSend(ctx any, thread Thread, node topology.Node, debugName string) {
	l.log("ran thread-safe system",
		zap.String("system", debugName),
		zap.Int("thread", thread.Index),
		zap.Duration("elapsed", elapsed(ctx)))
}

func (l *Log) StartRunUnsend(thread Thread, node topology.Node, debugName string) any {
	return time.Now()
}

func (l *Log) EndRunUnsend(ctx any, thread Thread, node topology.Node, debugName string) {
	l.log("ran thread-unsafe system",
		zap.String("system", debugName),
		zap.Duration("elapsed", elapsed(ctx)))
}

func (l *Log) MarkRunnable(node topology.Node) {
	l.log("system runnable", zap.Int("kind", int(node.Kind)), zap.Int("index", node.Index))
}

func (l *Log) CompleteSystem(node topology.Node) {
	l.log("system complete", zap.Int("kind", int(node.Kind)), zap.Int("index", node.Index))
}

func (l *Log) StealReturnPending(thread Thread) {
	l.log("steal returned pending", zap.Bool("main", thread.Main), zap.Int("worker", thread.Index))
}

func (l *Log) StealReturnComplete(thread Thread) {
	l.log("steal returned complete", zap.Bool("main", thread.Main), zap.Int("worker", thread.Index))
}

func elapsed(ctx any) time.Duration {
	start, ok := ctx.(time.Time)
	if !ok {
		return 0
	}
	return time.Since(start)
}
