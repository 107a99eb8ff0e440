package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessioncore/internal/clockx"
	"github.com/dmitrijs2005/sessioncore/internal/common"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestCodec(t *testing.T, clock clockx.Clock, keys ...SigningKey) *Codec {
	t.Helper()
	if len(keys) == 0 {
		keys = []SigningKey{{ID: "k1", Secret: []byte("test-secret")}}
	}
	c, err := NewCodec(keys, clock)
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	return c
}

func TestMintVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	clock := clockx.NewFake(testStart)
	c := newTestCodec(t, clock)

	claims := NewClaims("u1", KindRefresh, "jti-1", clock.Now(), time.Hour)
	tok, err := c.Mint(claims)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	got, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if got.Subject != "u1" || got.Kind != KindRefresh || got.ID != "jti-1" {
		t.Fatalf("claims mismatch: %+v", got)
	}
	if !got.ExpiresAt.Time.Equal(testStart.Add(time.Hour)) {
		t.Fatalf("expiry mismatch: got %v", got.ExpiresAt.Time)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	clock := clockx.NewFake(testStart)
	c := newTestCodec(t, clock)

	tok, err := c.Mint(NewClaims("u1", KindAccess, "", clock.Now(), 15*time.Minute))
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	clock.Advance(15*time.Minute - time.Second)
	if _, err := c.Verify(tok); err != nil {
		t.Fatalf("token should still verify before expires-at: %v", err)
	}

	clock.Advance(2 * time.Second)
	if _, err := c.Verify(tok); !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
}

func TestVerify_SignatureFlip(t *testing.T) {
	t.Parallel()

	clock := clockx.NewFake(testStart)
	c := newTestCodec(t, clock)

	tok, err := c.Mint(NewClaims("u1", KindAccess, "", clock.Now(), time.Hour))
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three segments, got %d", len(parts))
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := c.Verify(tampered); !errors.Is(err, common.ErrSignatureInvalid) {
		t.Fatalf("want ErrSignatureInvalid, got %v", err)
	}
}

func TestVerify_WrongKey(t *testing.T) {
	t.Parallel()

	clock := clockx.NewFake(testStart)
	minter := newTestCodec(t, clock, SigningKey{ID: "k1", Secret: []byte("right-secret")})
	verifier := newTestCodec(t, clock, SigningKey{ID: "k1", Secret: []byte("wrong-secret")})

	tok, err := minter.Mint(NewClaims("u1", KindAccess, "", clock.Now(), time.Hour))
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	if _, err := verifier.Verify(tok); !errors.Is(err, common.ErrSignatureInvalid) {
		t.Fatalf("want ErrSignatureInvalid, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	clock := clockx.NewFake(testStart)
	c := newTestCodec(t, clock)

	for _, tok := range []string{"", "not-a-token", "a.b", "a.b.c"} {
		if _, err := c.Verify(tok); !errors.Is(err, common.ErrTokenMalformed) {
			t.Fatalf("token %q: want ErrTokenMalformed, got %v", tok, err)
		}
	}
}

func TestVerify_RotatedKeyGracePeriod(t *testing.T) {
	t.Parallel()

	clock := clockx.NewFake(testStart)
	oldKey := SigningKey{ID: "2024-12", Secret: []byte("old-secret")}
	newKey := SigningKey{ID: "2025-06", Secret: []byte("new-secret")}

	oldCodec := newTestCodec(t, clock, oldKey)
	tok, err := oldCodec.Mint(NewClaims("u1", KindAccess, "", clock.Now(), time.Hour))
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	// Newest first: mints under newKey, still verifies oldKey tokens.
	rotated := newTestCodec(t, clock, newKey, oldKey)
	if _, err := rotated.Verify(tok); err != nil {
		t.Fatalf("rotated codec should verify old-key token: %v", err)
	}

	fresh, err := rotated.Mint(NewClaims("u2", KindAccess, "", clock.Now(), time.Hour))
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	newOnly := newTestCodec(t, clock, newKey)
	if _, err := newOnly.Verify(fresh); err != nil {
		t.Fatalf("fresh token must be signed under the newest key: %v", err)
	}
	if _, err := newOnly.Verify(tok); !errors.Is(err, common.ErrSignatureInvalid) {
		t.Fatalf("old-key token after grace period: want ErrSignatureInvalid, got %v", err)
	}
}

func TestDecode_IgnoresExpiry(t *testing.T) {
	t.Parallel()

	clock := clockx.NewFake(testStart)
	c := newTestCodec(t, clock)

	tok, err := c.Mint(NewClaims("u1", KindRefresh, "jti-9", clock.Now(), time.Minute))
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	clock.Advance(time.Hour)
	if _, err := c.Verify(tok); !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}

	got, err := c.Decode(tok)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got.ID != "jti-9" {
		t.Fatalf("claims mismatch: %+v", got)
	}
}

func TestDecode_StillRejectsBadSignature(t *testing.T) {
	t.Parallel()

	clock := clockx.NewFake(testStart)
	minter := newTestCodec(t, clock, SigningKey{ID: "k1", Secret: []byte("right-secret")})
	decoder := newTestCodec(t, clock, SigningKey{ID: "k1", Secret: []byte("wrong-secret")})

	tok, err := minter.Mint(NewClaims("u1", KindRefresh, "jti-1", clock.Now(), time.Hour))
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	if _, err := decoder.Decode(tok); !errors.Is(err, common.ErrSignatureInvalid) {
		t.Fatalf("want ErrSignatureInvalid, got %v", err)
	}
}

func TestNewCodec_RejectsBadKeys(t *testing.T) {
	t.Parallel()

	clock := clockx.NewFake(testStart)
	if _, err := NewCodec(nil, clock); err == nil {
		t.Fatalf("expected error for empty key list")
	}
	if _, err := NewCodec([]SigningKey{{ID: "", Secret: []byte("s")}}, clock); err == nil {
		t.Fatalf("expected error for empty key id")
	}
	if _, err := NewCodec([]SigningKey{{ID: "k", Secret: nil}}, clock); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
