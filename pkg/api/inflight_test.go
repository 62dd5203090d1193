package api

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestInflight_CoalescesConcurrentCalls(t *testing.T) {
	r := NewInflight()
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32

	fn := func() ([]byte, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return []byte(`"shared"`), nil
	}

	var wg sync.WaitGroup
	results := make([][]byte, 5)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _, _ = r.Do(context.Background(), "/graph", fn)
	}()
	<-started

	for i := 1; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, _ = r.Do(context.Background(), "/graph", fn)
		}(i)
	}

	// give the followers time to park on the running call
	time.Sleep(50 * time.Millisecond)
	if r.Len() != 1 {
		t.Fatalf("expected 1 pending key, got %d", r.Len())
	}
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected 1 underlying call, got %d", calls.Load())
	}
	for i, res := range results {
		if string(res) != `"shared"` {
			t.Fatalf("caller %d: expected shared result, got %s", i, res)
		}
	}
	if r.Len() != 0 {
		t.Fatalf("expected no pending keys after completion, got %d", r.Len())
	}
}

func TestInflight_ErrorClearsKey(t *testing.T) {
	r := NewInflight()
	boom := errors.New("boom")

	_, err, _ := r.Do(context.Background(), "/graph", func() ([]byte, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("expected key to be cleared after failure, got %d pending", r.Len())
	}

	data, err, _ := r.Do(context.Background(), "/graph", func() ([]byte, error) { return []byte(`1`), nil })
	if err != nil || string(data) != `1` {
		t.Fatalf("expected fresh call after failure, got %s, %v", data, err)
	}
}

func TestInflight_CanceledWaiterLeavesCallRunning(t *testing.T) {
	r := NewInflight()
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32

	fn := func() ([]byte, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return []byte(`"shared"`), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err, _ := r.Do(ctx, "/graph", fn)
		leaderErr <- err
	}()
	<-started

	type result struct {
		data []byte
		err  error
	}
	follower := make(chan result, 1)
	go func() {
		data, err, _ := r.Do(context.Background(), "/graph", fn)
		follower <- result{data, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-leaderErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected canceled caller to return before the call finished")
	}
	if r.Len() != 1 {
		t.Fatalf("expected the call to stay pending, got %d", r.Len())
	}

	close(release)
	res := <-follower
	if res.err != nil || string(res.data) != `"shared"` {
		t.Fatalf("expected shared result, got %s, %v", res.data, res.err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 underlying call, got %d", calls.Load())
	}
}
