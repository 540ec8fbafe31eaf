package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type lookupKey struct {
	Level  int
	Parent string
}

func TestCacheSetGet(t *testing.T) {
	c := New[lookupKey, []string](time.Minute)

	c.Set(lookupKey{Level: 1, Parent: "area-kyiv"}, []string{"Київ", "Бровари"})

	val, ok := c.Get(lookupKey{Level: 1, Parent: "area-kyiv"})
	if !ok {
		t.Fatal("expected to find cities of area-kyiv")
	}
	if len(val) != 2 {
		t.Errorf("expected 2 cities, got %d", len(val))
	}

	if _, ok := c.Get(lookupKey{Level: 1, Parent: "area-lviv"}); ok {
		t.Error("expected a different parent not to match")
	}
	if _, ok := c.Get(lookupKey{Level: 2, Parent: "area-kyiv"}); ok {
		t.Error("expected a different level not to match")
	}
}

func TestCacheExpiryWithMockedTime(t *testing.T) {
	c := New[string, string](time.Minute)

	currentTime := time.Now()
	c.nowFunc = func() time.Time {
		return currentTime
	}

	c.Set("areas", "loaded")

	if _, ok := c.Get("areas"); !ok {
		t.Fatal("expected to find key")
	}

	currentTime = currentTime.Add(2 * time.Minute)

	if _, ok := c.Get("areas"); ok {
		t.Error("expected key to be expired after time advance")
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New[string, int](time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	c.Delete("missing")

	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be deleted")
	}
	if c.Len() != 1 {
		t.Errorf("expected len=1, got %d", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected cache to be empty, got len=%d", c.Len())
	}
}

func TestCacheCleanup(t *testing.T) {
	c := New[string, string](time.Minute)

	currentTime := time.Now()
	c.nowFunc = func() time.Time { return currentTime }

	c.Set("old1", "v")
	c.Set("old2", "v")
	currentTime = currentTime.Add(2 * time.Minute)
	c.Set("fresh", "v")

	if dropped := c.Cleanup(); dropped != 2 {
		t.Errorf("expected 2 dropped, got %d", dropped)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 item after cleanup, got %d", c.Len())
	}
}

func TestRunJanitorStops(t *testing.T) {
	c := New[string, int](time.Millisecond)
	c.Set("k", 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.RunJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for c.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("janitor never removed the expired entry")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestGetOrLoadCachesValue(t *testing.T) {
	c := New[string, []string](time.Minute)

	var calls int
	load := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"Київська"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad(context.Background(), "areas", load)
		if err != nil {
			t.Fatalf("GetOrLoad failed: %v", err)
		}
		if len(v) != 1 {
			t.Fatalf("expected 1 area, got %d", len(v))
		}
	}

	if calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls)
	}
	if s := c.Stats(); s.Loads != 1 || s.Hits != 2 {
		t.Errorf("unexpected stats: %+v", s)
	}
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := New[string, int](time.Minute)
	boom := errors.New("upstream down")

	_, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatal("error result must not be cached")
	}

	v, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) {
		return 7, nil
	})
	if err != nil || v != 7 {
		t.Fatalf("expected 7 after recovery, got %d, %v", v, err)
	}
}

func TestGetOrLoadSharesConcurrentLoads(t *testing.T) {
	c := New[lookupKey, int](time.Minute)
	key := lookupKey{Level: 2, Parent: "city-kyiv"}

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const waiters = 20
	var started, wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		started.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			v, err := c.GetOrLoad(context.Background(), key, load)
			if err != nil || v != 42 {
				t.Errorf("expected 42, got %d, %v", v, err)
			}
		}()
	}
	started.Wait()
	// Give the goroutines time to join the in-flight load.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	// Late joiners may start a second load after the first finished, but the
	// twenty callers must not each hit upstream.
	if n := calls.Load(); n < 1 || n > 2 {
		t.Errorf("expected the load to be shared, got %d calls", n)
	}
}

func TestGetOrLoadCallerCancel(t *testing.T) {
	c := New[string, int](time.Minute)

	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		_, err := c.GetOrLoad(ctx, "k", func(loadCtx context.Context) (int, error) {
			<-release
			if loadCtx.Err() != nil {
				return 0, loadCtx.Err()
			}
			return 1, nil
		})
		errc <- err
	}()

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// The detached load still completes and fills the cache.
	close(release)
	deadline := time.After(2 * time.Second)
	for {
		if v, ok := c.Get("k"); ok {
			if v != 1 {
				t.Fatalf("expected 1, got %d", v)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("detached load never populated the cache")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
