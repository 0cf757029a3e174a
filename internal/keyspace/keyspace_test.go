package keyspace

import (
	"errors"
	"testing"
)

func TestSetGetDel(t *testing.T) {
	ks := New(0)
	if _, ok := ks.Get("missing"); ok {
		t.Fatalf("Get(missing) found an entry")
	}
	if err := ks.SetString("k", "v1"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	val, ok, err := ks.GetString("k")
	if err != nil || !ok || val != "v1" {
		t.Fatalf("GetString(k) = %q, %v, %v; want v1, true, nil", val, ok, err)
	}
	if err := ks.SetString("k", "v2"); err != nil {
		t.Fatalf("SetString overwrite: %v", err)
	}
	val, _, _ = ks.GetString("k")
	if val != "v2" {
		t.Fatalf("GetString(k) after overwrite = %q, want v2", val)
	}
	if !ks.Del("k") {
		t.Fatalf("Del(k) = false, want true")
	}
	if ks.Del("k") {
		t.Fatalf("second Del(k) = true, want false")
	}
	if ks.Len() != 0 {
		t.Fatalf("Len after Del = %d, want 0", ks.Len())
	}
}

func TestTypeMismatch(t *testing.T) {
	ks := New(0)
	if err := ks.SetString("k", "v"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if _, err := ks.ZSetFor("k", false); !errors.Is(err, ErrType) {
		t.Fatalf("ZSetFor on a string key = %v, want ErrType", err)
	}

	if _, err := ks.ZSetFor("z", true); err != nil {
		t.Fatalf("ZSetFor create: %v", err)
	}
	if _, _, err := ks.GetString("z"); !errors.Is(err, ErrType) {
		t.Fatalf("GetString on a zset key = %v, want ErrType", err)
	}
	if err := ks.SetString("z", "v"); !errors.Is(err, ErrType) {
		t.Fatalf("SetString on a zset key = %v, want ErrType", err)
	}
}

func TestExistsAndKeys(t *testing.T) {
	ks := New(0)
	ks.SetString("a", "1")
	ks.SetString("b", "2")
	if !ks.Exists("a") || !ks.Exists("b") {
		t.Fatalf("Exists false for a present key")
	}
	if ks.Exists("c") {
		t.Fatalf("Exists true for an absent key")
	}
	keys := ks.Keys()
	if len(keys) != 2 {
		t.Fatalf("Keys() = %v, want 2 entries", keys)
	}
}

func TestTTLSetAndClear(t *testing.T) {
	ks := New(0)
	ks.SetString("k", "v")

	if !ks.SetTTL("k", 1000, 0) {
		t.Fatalf("SetTTL on existing key returned false")
	}
	if n := ks.ExpireDue(500, 10); n != 0 {
		t.Fatalf("ExpireDue before deadline expired %d keys", n)
	}
	if n := ks.ExpireDue(1000, 10); n != 1 {
		t.Fatalf("ExpireDue at deadline expired %d keys, want 1", n)
	}
	if ks.Exists("k") {
		t.Fatalf("k still exists after TTL expiry")
	}
}

func TestTTLCancel(t *testing.T) {
	ks := New(0)
	ks.SetString("k", "v")
	ks.SetTTL("k", 50, 0)
	if !ks.SetTTL("k", -1, 0) {
		t.Fatalf("cancelling TTL returned false")
	}
	if n := ks.ExpireDue(10_000, 10); n != 0 {
		t.Fatalf("ExpireDue after TTL cancel expired %d keys, want 0", n)
	}
	if !ks.Exists("k") {
		t.Fatalf("k missing after TTL cancel")
	}
}

func TestPeekTTL(t *testing.T) {
	ks := New(0)
	if _, ok := ks.PeekTTL(); ok {
		t.Fatalf("PeekTTL on an empty heap reported ok")
	}
	ks.SetString("k", "v")
	ks.SetTTL("k", 500, 0)
	top, ok := ks.PeekTTL()
	if !ok || top != 500 {
		t.Fatalf("PeekTTL = %d, %v; want 500, true", top, ok)
	}
}

func TestExpireDueBoundsPerCall(t *testing.T) {
	ks := New(0)
	for i := 0; i < 10; i++ {
		key := string(rune('a' + i))
		ks.SetString(key, "v")
		ks.SetTTL(key, 0, 0)
	}
	if n := ks.ExpireDue(1000, 3); n != 3 {
		t.Fatalf("ExpireDue(maxExpirations=3) expired %d, want 3", n)
	}
	if ks.Len() != 7 {
		t.Fatalf("Len after bounded expiry = %d, want 7", ks.Len())
	}
}

func TestZAddZRemZScoreViaKeyspace(t *testing.T) {
	ks := New(0)
	z, err := ks.ZSetFor("z", true)
	if err != nil {
		t.Fatalf("ZSetFor create: %v", err)
	}
	z.Add("a", 1.5)

	z2, err := ks.ZSetFor("z", false)
	if err != nil || z2 != z {
		t.Fatalf("ZSetFor lookup returned a different set or error %v", err)
	}
	if score, ok := z2.Score("a"); !ok || score != 1.5 {
		t.Fatalf("Score(a) = %v, %v; want 1.5, true", score, ok)
	}
}
