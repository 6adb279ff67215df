package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/airwaves/internal/store"
	"github.com/google/go-cmp/cmp"
	tu "github.com/desertthunder/airwaves/internal/testing"
)

type failures struct {
	mu  sync.Mutex
	got []store.Failure
}

func (f *failures) hook(x store.Failure) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, x)
}

func (f *failures) kinds() []store.FailureKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]store.FailureKind, 0, len(f.got))
	for _, x := range f.got {
		kinds = append(kinds, x.Kind)
	}
	return kinds
}

func defaultRecord(key string) store.Record {
	return store.Record{"username": key, "points": 1000, "favorites": []string{}}
}

func newTestStore(t *testing.T) (*store.Store, *tu.MockMedium, *failures) {
	t.Helper()
	medium := tu.NewMockMedium()
	f := &failures{}
	s := store.New(medium, store.Options{Defaults: defaultRecord, OnFailure: f.hook})
	return s, medium, f
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for queued patch")
	}
}

func TestFetchOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and persists default on miss", func(t *testing.T) {
		s, medium, _ := newTestStore(t)

		r, err := s.FetchOrCreate(ctx, "alice")
		if err != nil {
			t.Fatalf("FetchOrCreate failed: %v", err)
		}

		if r["username"] != "alice" {
			t.Errorf("expected username alice, got %v", r["username"])
		}
		if r["points"] != float64(1000) {
			t.Errorf("expected points 1000, got %v (%T)", r["points"], r["points"])
		}

		raw, ok := medium.Raw("user_db_alice")
		if !ok {
			t.Fatal("default record should be persisted under prefixed key")
		}
		if raw != `{"favorites":[],"points":1000,"username":"alice"}` {
			t.Errorf("unexpected persisted value: %s", raw)
		}
	})

	t.Run("returns existing record without writing", func(t *testing.T) {
		s, medium, _ := newTestStore(t)
		medium.Put("user_db_bob", `{"username":"bob","points":42}`)

		r, err := s.FetchOrCreate(ctx, "bob")
		if err != nil {
			t.Fatalf("FetchOrCreate failed: %v", err)
		}

		if r["points"] != float64(42) {
			t.Errorf("expected points 42, got %v", r["points"])
		}
		if n := medium.Count("set", "user_db_bob"); n != 0 {
			t.Errorf("expected no writes on hit, got %d", n)
		}
	})

	t.Run("empty key", func(t *testing.T) {
		s, _, _ := newTestStore(t)

		if _, err := s.FetchOrCreate(ctx, ""); !errors.Is(err, store.ErrEmptyKey) {
			t.Errorf("expected ErrEmptyKey, got %v", err)
		}
	})

	t.Run("undecodable value is replaced by default", func(t *testing.T) {
		for _, raw := range []string{`{not json`, `null`, `[1,2,3]`, `"text"`} {
			t.Run(raw, func(t *testing.T) {
				s, medium, f := newTestStore(t)
				medium.Put("user_db_carol", raw)

				r, err := s.FetchOrCreate(ctx, "carol")
				if err != nil {
					t.Fatalf("FetchOrCreate failed: %v", err)
				}
				if r["username"] != "carol" {
					t.Errorf("expected default record, got %v", r)
				}

				kinds := f.kinds()
				if len(kinds) == 0 || kinds[0] != store.DeserializationFailure {
					t.Errorf("expected deserialization failure to be reported, got %v", kinds)
				}
			})
		}
	})

	t.Run("read failure is swallowed", func(t *testing.T) {
		s, medium, f := newTestStore(t)
		medium.FailGet("user_db_dave", errors.New("disk on fire"))

		r, err := s.FetchOrCreate(ctx, "dave")
		if err != nil {
			t.Fatalf("FetchOrCreate should not surface medium errors: %v", err)
		}
		if r["username"] != "dave" {
			t.Errorf("expected default record, got %v", r)
		}

		for _, k := range f.kinds() {
			if k != store.DurableReadFailure {
				t.Errorf("unexpected failure kind %v", k)
			}
		}
		if len(f.kinds()) == 0 {
			t.Error("expected read failures to be reported")
		}
	})

	t.Run("write failure is swallowed", func(t *testing.T) {
		s, medium, f := newTestStore(t)
		medium.FailSet("user_db_erin", store.ErrQuotaExceeded)

		r, err := s.FetchOrCreate(ctx, "erin")
		if err != nil {
			t.Fatalf("FetchOrCreate should not surface medium errors: %v", err)
		}
		if r["username"] != "erin" {
			t.Errorf("expected default record, got %v", r)
		}
		if _, ok := medium.Raw("user_db_erin"); ok {
			t.Error("failed write should leave no durable effect")
		}

		kinds := f.kinds()
		if len(kinds) != 1 || kinds[0] != store.DurableWriteFailure {
			t.Fatalf("expected one write failure, got %v", kinds)
		}
		if !errors.Is(f.got[0], store.ErrQuotaExceeded) || !errors.Is(f.got[0], store.ErrDurableWrite) {
			t.Errorf("failure should wrap the medium error, got %v", f.got[0])
		}
	})

	t.Run("concurrent first reads persist one default", func(t *testing.T) {
		medium := tu.NewMockMedium()
		var mu sync.Mutex
		calls := 0
		s := store.New(medium, store.Options{
			Latency: store.FixedLatency(2 * time.Millisecond),
			Defaults: func(key string) store.Record {
				mu.Lock()
				defer mu.Unlock()
				calls++
				return store.Record{"username": key, "id": fmt.Sprintf("id-%d", calls)}
			},
		})

		const callers = 8
		results := make([]store.Record, callers)
		var wg sync.WaitGroup
		for i := range callers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				r, err := s.FetchOrCreate(ctx, "frank")
				if err != nil {
					t.Errorf("FetchOrCreate failed: %v", err)
					return
				}
				results[i] = r
			}(i)
		}
		wg.Wait()

		for i, r := range results {
			if r["id"] != "id-1" {
				t.Errorf("caller %d got diverging default %v", i, r["id"])
			}
		}
		if n := medium.Count("set", "user_db_frank"); n != 1 {
			t.Errorf("expected exactly one default write, got %d", n)
		}
	})

	t.Run("default shape is identical for every creator", func(t *testing.T) {
		s, _, _ := newTestStore(t)

		a, _ := s.FetchOrCreate(ctx, "gina")
		b, _ := s.FetchOrCreate(ctx, "hank")

		if len(a) != len(b) {
			t.Fatalf("default records differ in shape: %v vs %v", a, b)
		}
		for k := range a {
			if _, ok := b[k]; !ok {
				t.Errorf("field %q missing from second default", k)
			}
		}
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("shallow merge", func(t *testing.T) {
		s, medium, _ := newTestStore(t)
		medium.Put("user_db_alice", `{"username":"alice","points":10,"role":"listener"}`)

		if err := s.Update(ctx, "alice", store.Patch{"points": 50, "streak": 3}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		got, _ := s.FetchOrCreate(ctx, "alice")
		want := store.Record{"username": "alice", "points": float64(50), "role": "listener", "streak": float64(3)}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("record mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("one read and one write per patch", func(t *testing.T) {
		s, medium, _ := newTestStore(t)
		medium.Put("user_db_alice", `{"points":1}`)

		if err := s.Update(ctx, "alice", store.Patch{"points": 2}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		if n := medium.Count("get", "user_db_alice"); n != 1 {
			t.Errorf("expected 1 read, got %d", n)
		}
		if n := medium.Count("set", "user_db_alice"); n != 1 {
			t.Errorf("expected 1 write, got %d", n)
		}
	})

	t.Run("missing key is a no-op", func(t *testing.T) {
		s, medium, f := newTestStore(t)

		if err := s.Update(ctx, "ghost", store.Patch{"points": 5}); err != nil {
			t.Fatalf("Update should not fail for missing key: %v", err)
		}

		if _, ok := medium.Raw("user_db_ghost"); ok {
			t.Error("update must not create a record")
		}
		if n := medium.Count("set", "user_db_ghost"); n != 0 {
			t.Errorf("expected no writes, got %d", n)
		}

		kinds := f.kinds()
		if len(kinds) != 1 || kinds[0] != store.MissingKeyOnUpdate {
			t.Errorf("expected missing key report, got %v", kinds)
		}
	})

	t.Run("undecodable record drops the patch", func(t *testing.T) {
		s, medium, _ := newTestStore(t)
		medium.Put("user_db_alice", `{broken`)

		if err := s.Update(ctx, "alice", store.Patch{"points": 5}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		if raw, _ := medium.Raw("user_db_alice"); raw != `{broken` {
			t.Errorf("patch should be dropped, value now %s", raw)
		}
	})

	t.Run("write failure is swallowed", func(t *testing.T) {
		s, medium, f := newTestStore(t)
		medium.Put("user_db_alice", `{"points":1}`)
		medium.FailSet("user_db_alice", store.ErrQuotaExceeded)

		if err := s.Update(ctx, "alice", store.Patch{"points": 2}); err != nil {
			t.Fatalf("Update should not surface medium errors: %v", err)
		}

		if raw, _ := medium.Raw("user_db_alice"); raw != `{"points":1}` {
			t.Errorf("failed write should leave value untouched, got %s", raw)
		}
		if kinds := f.kinds(); len(kinds) != 1 || kinds[0] != store.DurableWriteFailure {
			t.Errorf("expected write failure report, got %v", kinds)
		}
	})

	t.Run("unserializable patch is reported", func(t *testing.T) {
		s, medium, f := newTestStore(t)
		medium.Put("user_db_alice", `{"points":1}`)

		if err := s.Update(ctx, "alice", store.Patch{"bad": make(chan int)}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		if n := medium.Count("set", "user_db_alice"); n != 0 {
			t.Errorf("expected no write, got %d", n)
		}
		if len(f.got) != 1 || !errors.Is(f.got[0], store.ErrSerialization) {
			t.Errorf("expected serialization failure, got %v", f.got)
		}
	})

	t.Run("round trips plain JSON values", func(t *testing.T) {
		s, _, _ := newTestStore(t)
		if _, err := s.FetchOrCreate(ctx, "ivy"); err != nil {
			t.Fatalf("FetchOrCreate failed: %v", err)
		}

		patch := store.Patch{
			"name":    "Ivy",
			"points":  float64(12.5),
			"vip":     true,
			"nothing": nil,
			"bets":    []any{map[string]any{"station": "jazz-fm", "amount": float64(20)}},
			"stocks":  map[string]any{"ROCK": float64(3), "POP": []any{"a", float64(1)}},
		}
		if err := s.Update(ctx, "ivy", patch); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		got, _ := s.FetchOrCreate(ctx, "ivy")
		for k, v := range patch {
			if !cmp.Equal(got[k], v) {
				t.Errorf("field %s: got %#v, want %#v", k, got[k], v)
			}
		}
		if got["username"] != "ivy" {
			t.Errorf("untouched fields should survive, got %v", got["username"])
		}
	})

	t.Run("empty key", func(t *testing.T) {
		s, _, _ := newTestStore(t)

		if err := s.Update(ctx, "", store.Patch{"points": 1}); !errors.Is(err, store.ErrEmptyKey) {
			t.Errorf("expected ErrEmptyKey, got %v", err)
		}
		waitDone(t, s.Submit("", store.Patch{"points": 1}))
	})

	t.Run("caller stops waiting but patch still applies", func(t *testing.T) {
		s, medium, _ := newTestStore(t)
		medium.Put("user_db_slow", `{"points":0}`)
		medium.Put("user_db_fast", `{"points":0}`)
		medium.SlowGet("user_db_slow", 100*time.Millisecond)

		blocker := s.Submit("slow", store.Patch{"points": 1})

		waitCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		if err := s.Update(waitCtx, "fast", store.Patch{"points": 2}); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}

		waitDone(t, blocker)
		waitDone(t, s.Submit("fast", store.Patch{"checked": true}))

		got, _ := s.FetchOrCreate(ctx, "fast")
		if got["points"] != float64(2) {
			t.Errorf("abandoned patch should still apply, got %v", got["points"])
		}
	})
}

func TestOrdering(t *testing.T) {
	ctx := context.Background()

	t.Run("same key patches apply in submission order", func(t *testing.T) {
		s, medium, _ := newTestStore(t)
		medium.Put("user_db_alice", `{"points":0,"rank":"bronze"}`)
		// The first patch's read is slow; the second must still wait for it.
		medium.SlowGet("user_db_alice", 20*time.Millisecond)

		first := s.Submit("alice", store.Patch{"points": 50, "badge": "early"})
		second := s.Submit("alice", store.Patch{"points": 75})
		waitDone(t, second)
		waitDone(t, first)

		got, _ := s.FetchOrCreate(ctx, "alice")
		want := store.Record{"points": float64(75), "rank": "bronze", "badge": "early"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("record mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("cross key cycles never interleave", func(t *testing.T) {
		s, medium, _ := newTestStore(t)
		medium.Put("user_db_a", `{"n":0}`)
		medium.Put("user_db_b", `{"n":0}`)
		medium.SlowGet("user_db_a", 30*time.Millisecond)

		doneA := s.Submit("a", store.Patch{"n": 1})
		doneB := s.Submit("b", store.Patch{"n": 2})

		waitDone(t, doneB)
		select {
		case <-doneA:
		default:
			t.Fatal("later submission completed before earlier one")
		}

		var got []string
		for _, op := range medium.Ops() {
			got = append(got, op.String())
		}
		want := []string{"get user_db_a", "set user_db_a", "get user_db_b", "set user_db_b"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ops mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("many concurrent submitters lose no updates", func(t *testing.T) {
		s, medium, _ := newTestStore(t)
		for i := range 4 {
			medium.Put(fmt.Sprintf("user_db_u%d", i), `{}`)
		}

		var wg sync.WaitGroup
		for i := range 40 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("u%d", i%4)
				field := fmt.Sprintf("f%d", i)
				if err := s.Update(ctx, key, store.Patch{field: true}); err != nil {
					t.Errorf("Update failed: %v", err)
				}
			}(i)
		}
		wg.Wait()

		for u := range 4 {
			r, _ := s.FetchOrCreate(ctx, fmt.Sprintf("u%d", u))
			if len(r) != 10 {
				t.Errorf("u%d: expected 10 merged fields, got %d: %v", u, len(r), r)
			}
		}
		if n := s.Pending(); n != 0 {
			t.Errorf("expected empty queue, got %d pending", n)
		}
	})

	t.Run("example scenario", func(t *testing.T) {
		s, _, _ := newTestStore(t)

		d, err := s.FetchOrCreate(ctx, "alice")
		if err != nil {
			t.Fatalf("FetchOrCreate failed: %v", err)
		}

		first := s.Submit("alice", store.Patch{"points": 50})
		second := s.Submit("alice", store.Patch{"points": 75})
		waitDone(t, first)
		waitDone(t, second)

		got, _ := s.FetchOrCreate(ctx, "alice")
		want := d.Merge(store.Patch{"points": float64(75)})
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("record mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestKeys(t *testing.T) {
	t.Run("lists unprefixed keys", func(t *testing.T) {
		s, medium, _ := newTestStore(t)
		medium.Put("user_db_zoe", `{}`)
		medium.Put("user_db_amy", `{}`)
		medium.Put("other_thing", `{}`)

		keys, err := s.Keys()
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		if diff := cmp.Diff([]string{"amy", "zoe"}, keys); diff != "" {
			t.Errorf("unexpected keys %v", keys)
		}
	})

	t.Run("medium without listing", func(t *testing.T) {
		s := store.New(getSetOnly{store.NewMemoryMedium(0)}, store.Options{})

		if _, err := s.Keys(); !errors.Is(err, store.ErrUnsupported) {
			t.Errorf("expected ErrUnsupported, got %v", err)
		}
	})

	t.Run("custom prefix", func(t *testing.T) {
		medium := store.NewMemoryMedium(0)
		s := store.New(medium, store.Options{Prefix: "radio_"})
		if s.Prefix() != "radio_" {
			t.Fatalf("expected prefix radio_, got %s", s.Prefix())
		}

		if _, err := s.FetchOrCreate(context.Background(), "kim"); err != nil {
			t.Fatalf("FetchOrCreate failed: %v", err)
		}
		if _, ok, _ := medium.Get("radio_kim"); !ok {
			t.Error("record should be stored under custom prefix")
		}
	})
}

type getSetOnly struct {
	m store.Medium
}

func (g getSetOnly) Get(key string) (string, bool, error) { return g.m.Get(key) }
func (g getSetOnly) Set(key, value string) error           { return g.m.Set(key, value) }

func TestFlush(t *testing.T) {
	t.Run("waits for earlier patches", func(t *testing.T) {
		s, medium, _ := newTestStore(t)
		medium.Put("user_db_alice", `{"points":0}`)
		medium.SlowGet("user_db_alice", 10*time.Millisecond)

		for i := 1; i <= 3; i++ {
			s.Submit("alice", store.Patch{"points": i})
		}
		if err := s.Flush(context.Background()); err != nil {
			t.Fatalf("Flush failed: %v", err)
		}

		if s.Pending() != 0 {
			t.Errorf("expected empty queue after flush, got %d", s.Pending())
		}
		if raw, _ := medium.Raw("user_db_alice"); raw != `{"points":3}` {
			t.Errorf("expected last patch persisted, got %s", raw)
		}
	})

	t.Run("caller can stop waiting", func(t *testing.T) {
		s, medium, _ := newTestStore(t)
		medium.Put("user_db_bob", `{}`)
		medium.SlowGet("user_db_bob", 50*time.Millisecond)
		s.Submit("bob", store.Patch{"x": 1})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := s.Flush(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		waitDone(t, s.Submit("bob", store.Patch{"y": 2}))
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes record and next read recreates default", func(t *testing.T) {
		s, medium, _ := newTestStore(t)
		medium.Put("user_db_alice", `{"username":"alice","points":5}`)

		if err := s.Delete(ctx, "alice"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, ok := medium.Raw("user_db_alice"); ok {
			t.Fatal("record should be gone")
		}

		got, _ := s.FetchOrCreate(ctx, "alice")
		if got["points"] != float64(1000) {
			t.Errorf("expected default points, got %v", got["points"])
		}
	})

	t.Run("waits behind queued patches", func(t *testing.T) {
		s, medium, _ := newTestStore(t)
		medium.Put("user_db_bob", `{}`)
		medium.SlowGet("user_db_bob", 10*time.Millisecond)

		s.Submit("bob", store.Patch{"x": 1})
		if err := s.Delete(ctx, "bob"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		var got []string
		for _, op := range medium.Ops() {
			got = append(got, op.String())
		}
		want := []string{"get user_db_bob", "set user_db_bob", "delete user_db_bob"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ops mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("medium error is returned", func(t *testing.T) {
		s, medium, _ := newTestStore(t)
		medium.FailSet("user_db_carl", errors.New("disk full"))

		if err := s.Delete(ctx, "carl"); !errors.Is(err, store.ErrDurableWrite) {
			t.Errorf("expected ErrDurableWrite, got %v", err)
		}
	})

	t.Run("unsupported medium", func(t *testing.T) {
		s := store.New(getSetOnly{store.NewMemoryMedium(0)}, store.Options{})

		if err := s.Delete(ctx, "dora"); !errors.Is(err, store.ErrUnsupported) {
			t.Errorf("expected ErrUnsupported, got %v", err)
		}
	})

	t.Run("empty key", func(t *testing.T) {
		s, _, _ := newTestStore(t)

		if err := s.Delete(ctx, ""); !errors.Is(err, store.ErrEmptyKey) {
			t.Errorf("expected ErrEmptyKey, got %v", err)
		}
	})
}
