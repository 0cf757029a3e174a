// Package engine implements Engine: the single, reactor-owned value
// bundling the keyspace, configuration, and logger, per spec.md §9's
// explicit "no process-wide singletons" note. Requests are routed
// through command.Dispatch and its package-level command.Table.
package engine

import (
	"go.uber.org/zap"

	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/codec"
	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/command"
	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/config"
	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/keyspace"
)

// Engine owns the keyspace and every tunable a command or the reactor
// needs to consult. The reactor loop holds exactly one Engine and
// passes it down to connection handling; nothing here is touched from
// more than one goroutine.
type Engine struct {
	Keyspace *keyspace.Keyspace
	Config   *config.EngineConfig
	Log      *zap.Logger
}

// New builds an Engine. A nil logger falls back to zap.NewNop(), the
// injected-logger convention this corpus uses throughout (see
// SPEC_FULL.md's Logging note on this pattern).
func New(cfg *config.EngineConfig, log *zap.Logger) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		Keyspace: keyspace.New(cfg.RehashBatch),
		Config:   cfg,
		Log:      log,
	}
}

// Execute runs one request's argv through CommandDispatch and returns
// its response frame, ready to be written to a connection's wbuf.
func (e *Engine) Execute(argv [][]byte, nowMS int64) []byte {
	var w codec.Writer
	command.Dispatch(e.Keyspace, argv, nowMS, &w)
	return w.Frame(e.Config.MaxFrameBytes)
}

// Tick expires any keys whose TTL has elapsed as of nowMS, bounded by
// Config.MaxExpirationsPerTick, and logs how many were reclaimed.
func (e *Engine) Tick(nowMS int64) int {
	n := e.Keyspace.ExpireDue(nowMS, e.Config.MaxExpirationsPerTick)
	if n > 0 {
		e.Log.Debug("expired keys", zap.Int("count", n), zap.Int64("now_ms", nowMS))
	}
	return n
}
