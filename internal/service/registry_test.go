package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vendalink/vendalink/internal/domain"
	"github.com/vendalink/vendalink/internal/domain/tenant"
)

var testCoords = tenant.Coordinates{Host: "db1", Port: 5432, Database: "acme", User: "app", Password: "pw"}

func TestRegistryAcquireCachesPool(t *testing.T) {
	factory := &fakeFactory{}
	reg := NewRegistry(factory)

	c1, err := reg.Acquire(context.Background(), "t1", testCoords)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c2, err := reg.Acquire(context.Background(), "t1", testCoords)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c1 != c2 {
		t.Fatal("expected the same pool on the second acquire")
	}
	if got := factory.dials.Load(); got != 1 {
		t.Fatalf("expected 1 dial, got %d", got)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 cached pool, got %d", reg.Len())
	}
}

func TestRegistryAcquireConcurrentDialsOnce(t *testing.T) {
	factory := &fakeFactory{delay: 5 * time.Millisecond} // long enough for the flights to pile up
	reg := NewRegistry(factory)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := reg.Acquire(context.Background(), "t1", testCoords); err != nil {
				t.Errorf("acquire: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := factory.dials.Load(); got != 1 {
		t.Fatalf("expected a single dial under concurrency, got %d", got)
	}
}

func TestRegistryAcquireDialFailure(t *testing.T) {
	factory := &fakeFactory{dialErr: errors.New("connection refused")}
	reg := NewRegistry(factory)

	_, err := reg.Acquire(context.Background(), "t1", testCoords)
	if !errors.Is(err, domain.ErrPoolUnavailable) {
		t.Fatalf("expected ErrPoolUnavailable, got %v", err)
	}
	if reg.Len() != 0 {
		t.Fatal("failed dial must not leave a cache entry")
	}
}

func TestRegistryReplaceClosesOldPool(t *testing.T) {
	factory := &fakeFactory{}
	reg := NewRegistry(factory)

	c1, err := reg.Acquire(context.Background(), "t1", testCoords)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	changed := testCoords
	changed.Host = "db2"
	c2, err := reg.Replace(context.Background(), "t1", changed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c1 == c2 {
		t.Fatal("expected a fresh pool after coordinate change")
	}
	if got := c1.(*fakeConn).closed.Load(); got != 1 {
		t.Fatalf("expected the old pool to be closed once, got %d", got)
	}
}

func TestRegistryReplaceSkipsWhenUnchanged(t *testing.T) {
	factory := &fakeFactory{}
	reg := NewRegistry(factory)

	c1, err := reg.Acquire(context.Background(), "t1", testCoords)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c2, err := reg.Replace(context.Background(), "t1", testCoords)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c1 != c2 {
		t.Fatal("identical coordinates must keep the existing pool")
	}
	if got := factory.dials.Load(); got != 1 {
		t.Fatalf("expected no redial, got %d dials", got)
	}
	if got := c1.(*fakeConn).closed.Load(); got != 0 {
		t.Fatal("existing pool must not be closed on a no-op replace")
	}
}

func TestRegistryReplaceDuringColdAcquire(t *testing.T) {
	factory := &fakeFactory{delay: 10 * time.Millisecond}
	reg := NewRegistry(factory)

	changed := testCoords
	changed.Host = "db2"

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := reg.Acquire(context.Background(), "t1", testCoords); err != nil {
			t.Errorf("acquire: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		time.Sleep(2 * time.Millisecond) // let the acquire enter its dial first
		if _, err := reg.Replace(context.Background(), "t1", changed); err != nil {
			t.Errorf("replace: %v", err)
		}
	}()
	wg.Wait()

	if reg.Len() != 1 {
		t.Fatalf("expected exactly one cached pool, got %d", reg.Len())
	}

	factory.mu.Lock()
	dialed := make([]*fakeConn, len(factory.conns))
	copy(dialed, factory.conns)
	factory.mu.Unlock()

	closed := 0
	for _, c := range dialed {
		closed += int(c.closed.Load())
	}
	if closed != len(dialed)-1 {
		t.Fatalf("dialed %d pools, closed %d; every loser must be closed exactly once", len(dialed), closed)
	}

	// The saved coordinates must have won the race: replacing with the same
	// coordinates again is a fingerprint no-op.
	before := factory.dials.Load()
	if _, err := reg.Replace(context.Background(), "t1", changed); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got := factory.dials.Load(); got != before {
		t.Fatalf("registry kept stale coordinates after the race, redialed (%d -> %d)", before, got)
	}
}

func TestRegistryRemove(t *testing.T) {
	factory := &fakeFactory{}
	reg := NewRegistry(factory)

	c, err := reg.Acquire(context.Background(), "t1", testCoords)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reg.Remove("t1")
	if reg.Len() != 0 {
		t.Fatal("expected the pool to be evicted")
	}
	if got := c.(*fakeConn).closed.Load(); got != 1 {
		t.Fatalf("expected the pool to be closed, closed=%d", got)
	}

	// Removing an absent tenant is a no-op.
	reg.Remove("t1")
}

func TestRegistryClose(t *testing.T) {
	factory := &fakeFactory{}
	reg := NewRegistry(factory)

	c1, _ := reg.Acquire(context.Background(), "t1", testCoords)
	c2, _ := reg.Acquire(context.Background(), "t2", testCoords)

	reg.Close()

	if reg.Len() != 0 {
		t.Fatal("expected an empty registry after Close")
	}
	if c1.(*fakeConn).closed.Load() != 1 || c2.(*fakeConn).closed.Load() != 1 {
		t.Fatal("expected every pool to be closed")
	}
}
