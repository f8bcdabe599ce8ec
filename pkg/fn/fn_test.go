package fn

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResult(t *testing.T) {
	ok := Ok(42)
	if !ok.IsOk() || ok.IsErr() {
		t.Fatal("Ok state wrong")
	}
	if v, err := ok.Unwrap(); v != 42 || err != nil {
		t.Fatalf("Unwrap = %v, %v", v, err)
	}

	fail := Err[int](errors.New("boom"))
	if fail.IsOk() || !fail.IsErr() {
		t.Fatal("Err state wrong")
	}
	if got := fail.UnwrapOr(7); got != 7 {
		t.Fatalf("UnwrapOr = %d", got)
	}
}

func TestFromPair(t *testing.T) {
	if r := FromPair(1, nil); r.IsErr() {
		t.Fatal("nil error should be Ok")
	}
	if r := FromPair(1, errors.New("x")); r.IsOk() {
		t.Fatal("error should be Err")
	}
}

func TestMapResult(t *testing.T) {
	doubled := MapResult(Ok(3), func(v int) int { return v * 2 })
	if v, _ := doubled.Unwrap(); v != 6 {
		t.Fatalf("got %d", v)
	}
	failed := MapResult(Err[int](errors.New("x")), func(v int) int { return v * 2 })
	if failed.IsOk() {
		t.Fatal("error must pass through")
	}
}

func TestCollect(t *testing.T) {
	all := Collect([]Result[int]{Ok(1), Ok(2)})
	if v, _ := all.Unwrap(); len(v) != 2 {
		t.Fatalf("got %v", v)
	}
	some := Collect([]Result[int]{Ok(1), Err[int](errors.New("x"))})
	if some.IsOk() {
		t.Fatal("first error must surface")
	}
}

func TestThen_ShortCircuits(t *testing.T) {
	first := func(_ context.Context, n int) Result[int] { return Err[int](errors.New("early")) }
	called := false
	second := func(_ context.Context, n int) Result[int] { called = true; return Ok(n) }

	r := Then(first, second)(context.Background(), 1)
	if r.IsOk() || called {
		t.Fatal("second stage ran after failure")
	}
}

func TestThen_Composes(t *testing.T) {
	add := MapStage(func(n int) int { return n + 1 })
	double := MapStage(func(n int) int { return n * 2 })
	r := Then(add, double)(context.Background(), 3)
	if v, _ := r.Unwrap(); v != 8 {
		t.Fatalf("got %d", v)
	}
}

func TestTapStage(t *testing.T) {
	var seen int
	tap := TapStage(func(_ context.Context, n int) { seen = n })
	if r := tap(context.Background(), 5); r.IsErr() {
		t.Fatal("tap must pass through")
	}
	if seen != 5 {
		t.Fatalf("seen = %d", seen)
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	opts := RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond}
	r := Retry(context.Background(), opts, func(context.Context) Result[int] {
		attempts++
		if attempts < 3 {
			return Err[int](errors.New("transient"))
		}
		return Ok(attempts)
	})
	if v, _ := r.Unwrap(); v != 3 {
		t.Fatalf("got %v after %d attempts", v, attempts)
	}
}

func TestRetry_Exhausts(t *testing.T) {
	attempts := 0
	opts := RetryOpts{MaxAttempts: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond}
	r := Retry(context.Background(), opts, func(context.Context) Result[int] {
		attempts++
		return Err[int](errors.New("permanent"))
	})
	if r.IsOk() || attempts != 2 {
		t.Fatalf("ok=%v attempts=%d", r.IsOk(), attempts)
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := RetryOpts{MaxAttempts: 5, InitialWait: time.Hour, MaxWait: time.Hour}
	r := Retry(ctx, opts, func(context.Context) Result[int] {
		return Err[int](errors.New("fail"))
	})
	if _, err := r.Unwrap(); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestParMap(t *testing.T) {
	out := ParMap([]int{1, 2, 3, 4}, 2, func(n int) int { return n * n })
	want := []int{1, 4, 9, 16}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out = %v", out)
		}
	}
}

func TestFanOut_PreservesOrder(t *testing.T) {
	out := FanOut(
		func() int { time.Sleep(10 * time.Millisecond); return 1 },
		func() int { return 2 },
		func() int { time.Sleep(5 * time.Millisecond); return 3 },
	)
	if out[0] != 1 || out[1] != 2 || out[2] != 3 {
		t.Fatalf("out = %v", out)
	}
}

func TestSliceHelpers(t *testing.T) {
	doubled := Map([]int{1, 2}, func(n int) int { return n * 2 })
	if doubled[0] != 2 || doubled[1] != 4 {
		t.Fatalf("Map = %v", doubled)
	}

	evens := Filter([]int{1, 2, 3, 4}, func(n int) bool { return n%2 == 0 })
	if len(evens) != 2 {
		t.Fatalf("Filter = %v", evens)
	}

	kept := FilterMap([]int{1, 2, 3}, func(n int) (int, bool) { return n * 10, n != 2 })
	if len(kept) != 2 || kept[0] != 10 || kept[1] != 30 {
		t.Fatalf("FilterMap = %v", kept)
	}
}

func TestChunk(t *testing.T) {
	chunks := Chunk([]int{1, 2, 3, 4, 5}, 2)
	if len(chunks) != 3 || len(chunks[0]) != 2 || len(chunks[2]) != 1 {
		t.Fatalf("Chunk = %v", chunks)
	}
	if Chunk([]int{1}, 0) != nil {
		t.Fatal("n<=0 must return nil")
	}
	if got := Chunk([]int(nil), 3); got != nil {
		t.Fatalf("empty input = %v", got)
	}
}
