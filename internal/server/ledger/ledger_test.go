package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestRevoke_FirstCallWins(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	if err := m.Record(ctx, "jti-1", testStart.Add(time.Hour)); err != nil {
		t.Fatalf("Record error: %v", err)
	}

	revoked, err := m.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked error: %v", err)
	}
	if revoked {
		t.Fatalf("fresh entry reported revoked")
	}

	first, err := m.Revoke(ctx, "jti-1", testStart)
	if err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if !first {
		t.Fatalf("first revoke must win")
	}

	second, err := m.Revoke(ctx, "jti-1", testStart.Add(time.Second))
	if err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if second {
		t.Fatalf("second revoke must lose")
	}

	revoked, err = m.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked error: %v", err)
	}
	if !revoked {
		t.Fatalf("revoked entry reported active")
	}
}

func TestRevoke_UnknownIdentifierLeavesTombstone(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	first, err := m.Revoke(ctx, "ghost", testStart)
	if err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if !first {
		t.Fatalf("revoking an unknown id should succeed")
	}

	revoked, err := m.IsRevoked(ctx, "ghost")
	if err != nil {
		t.Fatalf("IsRevoked error: %v", err)
	}
	if !revoked {
		t.Fatalf("tombstone missing for unknown id")
	}
}

func TestPrune_DropsOnlyExpired(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	if err := m.Record(ctx, "old", testStart.Add(-time.Hour)); err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if err := m.Record(ctx, "live", testStart.Add(time.Hour)); err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if _, err := m.Revoke(ctx, "live", testStart); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}

	n, err := m.Prune(ctx, testStart)
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	if n != 1 {
		t.Fatalf("pruned count mismatch: got %d want 1", n)
	}

	revoked, err := m.IsRevoked(ctx, "live")
	if err != nil {
		t.Fatalf("IsRevoked error: %v", err)
	}
	if !revoked {
		t.Fatalf("live entry lost during prune")
	}
}

func TestRevoke_ConcurrentDistinctIdentifiers(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("jti-%d", n)
			if err := m.Record(ctx, id, testStart.Add(time.Hour)); err != nil {
				t.Errorf("Record error: %v", err)
				return
			}
			first, err := m.Revoke(ctx, id, testStart)
			if err != nil || !first {
				t.Errorf("Revoke(%s): first=%v err=%v", id, first, err)
			}
		}(i)
	}
	wg.Wait()
}

func TestRevoke_ConcurrentSameIdentifier_OneWinner(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	if err := m.Record(ctx, "jti-1", testStart.Add(time.Hour)); err != nil {
		t.Fatalf("Record error: %v", err)
	}

	var wg sync.WaitGroup
	wins := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := m.Revoke(ctx, "jti-1", testStart)
			if err != nil {
				t.Errorf("Revoke error: %v", err)
				return
			}
			wins <- first
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for w := range wins {
		if w {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("exactly one concurrent revoke must win, got %d", winners)
	}
}
