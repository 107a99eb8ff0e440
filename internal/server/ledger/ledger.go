// Package ledger tracks outstanding refresh-token identifiers so they can
// be invalidated before their natural expiry.
package ledger

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// Ledger records refresh-token identifiers and their revocation. An
// identifier moves through Active -> Rotated/Revoked/Expired and never
// back. Revoke reports whether this call performed the transition, so
// concurrent rotations of the same token converge to exactly one winner.
type Ledger interface {
	// Record registers a newly minted refresh-token identifier.
	Record(ctx context.Context, tokenID string, expiresAt time.Time) error

	// Revoke marks the identifier revoked at the given time. It returns
	// true when this call performed the revocation and false when the
	// identifier was already revoked.
	Revoke(ctx context.Context, tokenID string, at time.Time) (bool, error)

	// IsRevoked reports whether the identifier has been revoked.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// Prune drops entries whose token expired before the cutoff and
	// returns how many entries were removed.
	Prune(ctx context.Context, before time.Time) (int, error)
}

const shardCount = 64

type entry struct {
	expiresAt time.Time
	revokedAt time.Time // zero while active
}

type memoryShard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Memory is a sharded in-process Ledger. Revocations of distinct
// identifiers only contend when they land in the same shard.
type Memory struct {
	shards [shardCount]memoryShard
}

func NewMemory() *Memory {
	m := &Memory{}
	for i := range m.shards {
		m.shards[i].entries = make(map[string]*entry)
	}
	return m
}

func (m *Memory) shard(tokenID string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(tokenID))
	return &m.shards[h.Sum32()%shardCount]
}

func (m *Memory) Record(ctx context.Context, tokenID string, expiresAt time.Time) error {
	sh := m.shard(tokenID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.entries[tokenID] = &entry{expiresAt: expiresAt}
	return nil
}

func (m *Memory) Revoke(ctx context.Context, tokenID string, at time.Time) (bool, error) {
	sh := m.shard(tokenID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[tokenID]
	if !ok {
		// Unknown identifier: leave a tombstone so later checks still see
		// the revocation. Its expiry is unknown, so it prunes by revoke time.
		sh.entries[tokenID] = &entry{expiresAt: at, revokedAt: at}
		return true, nil
	}
	if !e.revokedAt.IsZero() {
		return false, nil
	}
	e.revokedAt = at
	return true, nil
}

func (m *Memory) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	sh := m.shard(tokenID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[tokenID]
	return ok && !e.revokedAt.IsZero(), nil
}

func (m *Memory) Prune(ctx context.Context, before time.Time) (int, error) {
	pruned := 0
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.Lock()
		for id, e := range sh.entries {
			if e.expiresAt.Before(before) {
				delete(sh.entries, id)
				pruned++
			}
		}
		sh.mu.Unlock()
	}
	return pruned, nil
}
