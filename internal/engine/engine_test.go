package engine

import (
	"testing"

	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/codec"
	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/config"
)

func exec(e *Engine, nowMS int64, args ...string) []codec.Value {
	argv := make([][]byte, len(args))
	for i, a := range args {
		argv[i] = []byte(a)
	}
	frame := e.Execute(argv, nowMS)
	l := int(frame[0]) | int(frame[1])<<8 | int(frame[2])<<16 | int(frame[3])<<24
	vals, err := codec.DecodeValues(frame[4 : 4+l])
	if err != nil {
		panic(err)
	}
	return vals
}

func TestNewFallsBackToDefaultsAndNopLogger(t *testing.T) {
	e := New(nil, nil)
	if e.Config == nil || e.Log == nil || e.Keyspace == nil {
		t.Fatalf("New(nil, nil) left a nil field: %+v", e)
	}
}

func TestExecuteEndToEnd(t *testing.T) {
	e := New(config.DefaultConfig(), nil)

	got := exec(e, 0, "SET", "k", "v")
	if got[0].Tag != codec.TagNil {
		t.Fatalf("SET = %+v, want Nil", got[0])
	}
	got = exec(e, 0, "GET", "k")
	if got[0].Tag != codec.TagStr || got[0].Str != "v" {
		t.Fatalf("GET = %+v, want Str(v)", got[0])
	}
}

func TestTickExpiresDueKeys(t *testing.T) {
	e := New(config.DefaultConfig(), nil)
	exec(e, 0, "SET", "k", "v")
	exec(e, 0, "TTL", "k", "10")

	if n := e.Tick(5); n != 0 {
		t.Fatalf("Tick before deadline expired %d, want 0", n)
	}
	if n := e.Tick(10); n != 1 {
		t.Fatalf("Tick at deadline expired %d, want 1", n)
	}
	got := exec(e, 10, "GET", "k")
	if got[0].Tag != codec.TagNil {
		t.Fatalf("GET after Tick = %+v, want Nil", got[0])
	}
}

func TestExecuteOversizeFrameRepliesErr2Big(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxFrameBytes = 16
	e := New(cfg, nil)

	exec(e, 0, "SET", "k", string(make([]byte, 100)))
	got := exec(e, 0, "GET", "k")
	if got[0].Tag != codec.TagErr || got[0].ErrCode != codec.Err2Big {
		t.Fatalf("oversize GET response = %+v, want Err2Big", got[0])
	}
}
