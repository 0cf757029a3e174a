// Package command implements CommandDispatch: a static
// {name, arity, handler} table matching spec.md §4.7, case-insensitive
// on the first argument. Each handler follows
// _examples/original_source/server_data.cpp's do_* functions
// (do_keys/do_get/do_set/do_del/do_zadd/do_zrem/do_zscore/do_zquery/
// do_expire) nearly line for line, writing through a codec.Writer in
// place of the reference's std::string &out accumulator.
package command

import (
	"math"
	"strconv"
	"strings"

	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/codec"
	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/keyspace"
)

// Handler executes one command against ks, writing its response
// through w. nowMS is the reactor's current monotonic clock reading,
// needed by TTL.
type Handler func(ks *keyspace.Keyspace, argv [][]byte, nowMS int64, w *codec.Writer)

type entry struct {
	name    string
	arity   int
	handler Handler
}

// Table is the ordered, case-insensitive dispatch table.
var Table = []entry{
	{"keys", 1, doKeys},
	{"get", 2, doGet},
	{"set", 3, doSet},
	{"del", 2, doDel},
	{"exists", 2, doExists},
	{"type", 2, doType},
	{"zadd", 4, doZAdd},
	{"zrem", 3, doZRem},
	{"zscore", 3, doZScore},
	{"zcard", 2, doZCard},
	{"zquery", 6, doZQuery},
	{"ttl", 3, doTTL},
}

// Dispatch looks up argv[0] (case-insensitive) against arity len(argv)
// and runs its handler, writing an Err(ErrUnknown) for an unrecognized
// name or a mismatched arity, per spec.md §4.7.
func Dispatch(ks *keyspace.Keyspace, argv [][]byte, nowMS int64, w *codec.Writer) {
	if len(argv) == 0 {
		w.Err(codec.ErrUnknown, "Unknown cmd")
		return
	}
	name := strings.ToLower(string(argv[0]))
	for _, e := range Table {
		if e.name == name && e.arity == len(argv) {
			e.handler(ks, argv, nowMS, w)
			return
		}
	}
	w.Err(codec.ErrUnknown, "Unknown cmd")
}

func doKeys(ks *keyspace.Keyspace, argv [][]byte, nowMS int64, w *codec.Writer) {
	keys := ks.Keys()
	tok := w.BeginArr()
	for _, k := range keys {
		w.Str(k)
	}
	w.EndArr(tok, uint32(len(keys)))
}

func doGet(ks *keyspace.Keyspace, argv [][]byte, nowMS int64, w *codec.Writer) {
	val, ok, err := ks.GetString(string(argv[1]))
	if err != nil {
		w.Err(codec.ErrType, "expect string type")
		return
	}
	if !ok {
		w.Nil()
		return
	}
	w.Str(val)
}

func doSet(ks *keyspace.Keyspace, argv [][]byte, nowMS int64, w *codec.Writer) {
	if err := ks.SetString(string(argv[1]), string(argv[2])); err != nil {
		w.Err(codec.ErrType, "expect string type")
		return
	}
	w.Nil()
}

func doDel(ks *keyspace.Keyspace, argv [][]byte, nowMS int64, w *codec.Writer) {
	if ks.Del(string(argv[1])) {
		w.Int(1)
	} else {
		w.Int(0)
	}
}

func doExists(ks *keyspace.Keyspace, argv [][]byte, nowMS int64, w *codec.Writer) {
	if ks.Exists(string(argv[1])) {
		w.Int(1)
	} else {
		w.Int(0)
	}
}

func doType(ks *keyspace.Keyspace, argv [][]byte, nowMS int64, w *codec.Writer) {
	e, ok := ks.Get(string(argv[1]))
	if !ok {
		w.Str("none")
		return
	}
	w.Str(e.Type.String())
}

func doZAdd(ks *keyspace.Keyspace, argv [][]byte, nowMS int64, w *codec.Writer) {
	score, err := strconv.ParseFloat(string(argv[2]), 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		w.Err(codec.ErrArg, "expect fp number")
		return
	}
	z, zerr := ks.ZSetFor(string(argv[1]), true)
	if zerr != nil {
		w.Err(codec.ErrType, "expect zset")
		return
	}
	if z.Add(string(argv[3]), score) {
		w.Int(1)
	} else {
		w.Int(0)
	}
}

func doZRem(ks *keyspace.Keyspace, argv [][]byte, nowMS int64, w *codec.Writer) {
	z, err := ks.ZSetFor(string(argv[1]), false)
	if err != nil {
		w.Err(codec.ErrType, "expect zset")
		return
	}
	if z == nil {
		w.Nil()
		return
	}
	if z.Remove(string(argv[2])) {
		w.Int(1)
	} else {
		w.Int(0)
	}
}

func doZScore(ks *keyspace.Keyspace, argv [][]byte, nowMS int64, w *codec.Writer) {
	z, err := ks.ZSetFor(string(argv[1]), false)
	if err != nil {
		w.Err(codec.ErrType, "expect zset")
		return
	}
	if z == nil {
		w.Nil()
		return
	}
	score, ok := z.Score(string(argv[2]))
	if !ok {
		w.Nil()
		return
	}
	w.Dbl(score)
}

func doZCard(ks *keyspace.Keyspace, argv [][]byte, nowMS int64, w *codec.Writer) {
	z, err := ks.ZSetFor(string(argv[1]), false)
	if err != nil {
		w.Err(codec.ErrType, "expect zset")
		return
	}
	if z == nil {
		w.Int(0)
		return
	}
	w.Int(int64(z.Len()))
}

func doZQuery(ks *keyspace.Keyspace, argv [][]byte, nowMS int64, w *codec.Writer) {
	score, err := strconv.ParseFloat(string(argv[2]), 64)
	if err != nil {
		w.Err(codec.ErrArg, "expect fp number")
		return
	}
	name := string(argv[3])
	offset, err := strconv.ParseInt(string(argv[4]), 10, 64)
	if err != nil {
		w.Err(codec.ErrArg, "expect int")
		return
	}
	limit, err := strconv.ParseInt(string(argv[5]), 10, 64)
	if err != nil {
		w.Err(codec.ErrArg, "expect int")
		return
	}

	z, zerr := ks.ZSetFor(string(argv[1]), false)
	if zerr != nil {
		w.Err(codec.ErrType, "expect zset")
		return
	}
	if z == nil || limit <= 0 {
		tok := w.BeginArr()
		w.EndArr(tok, 0)
		return
	}

	members := z.Query(score, name, int(offset), int(limit))
	tok := w.BeginArr()
	for _, m := range members {
		w.Str(m.Name)
		w.Dbl(m.Score)
	}
	w.EndArr(tok, uint32(2*len(members)))
}

func doTTL(ks *keyspace.Keyspace, argv [][]byte, nowMS int64, w *codec.Writer) {
	ms, err := strconv.ParseInt(string(argv[2]), 10, 64)
	if err != nil {
		w.Err(codec.ErrArg, "expect int64")
		return
	}
	if ks.SetTTL(string(argv[1]), ms, nowMS) {
		w.Int(1)
	} else {
		w.Int(0)
	}
}
