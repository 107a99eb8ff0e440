package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/sessioncore/internal/common"
	"github.com/dmitrijs2005/sessioncore/internal/server/models"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Stored credential hashes are tagged with the algorithm that produced
// them, so algorithms can be migrated one principal at a time:
//
//	bcrypt$<standard bcrypt hash>
//	argon2id$<base64 salt>$<base64 hash>
const (
	tagBcrypt   = "bcrypt"
	tagArgon2id = "argon2id"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// dummyBcryptHash is compared against when no real hash is available, so
// the unknown-principal path costs the same as a wrong secret.
var dummyBcryptHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Verifier checks a presented secret against a stored tagged hash. It has
// no side effects and fails closed: any problem parsing the stored hash
// yields false.
type Verifier struct{}

func NewVerifier() *Verifier { return &Verifier{} }

// Verify reports whether secret matches the principal's stored credential
// hash. All comparisons are constant-time in the hash material.
func (v *Verifier) Verify(p *models.Principal, secret string) bool {
	if p == nil || p.CredentialHash == "" {
		return false
	}

	alg, rest, found := strings.Cut(p.CredentialHash, "$")
	if !found {
		return false
	}

	switch alg {
	case tagBcrypt:
		return bcrypt.CompareHashAndPassword([]byte("$"+rest), []byte(secret)) == nil
	case tagArgon2id:
		saltB64, hashB64, found := strings.Cut(rest, "$")
		if !found {
			return false
		}
		salt, err := base64.RawStdEncoding.DecodeString(saltB64)
		if err != nil {
			return false
		}
		want, err := base64.RawStdEncoding.DecodeString(hashB64)
		if err != nil || len(want) == 0 {
			return false
		}
		got := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, uint32(len(want)))
		return subtle.ConstantTimeCompare(got, want) == 1
	default:
		return false
	}
}

// DummyVerify burns the same work as a real bcrypt comparison. Callers use
// it when the principal is unknown or disabled so response timing does not
// reveal whether an identifier exists.
func (v *Verifier) DummyVerify(secret string) {
	_ = bcrypt.CompareHashAndPassword(dummyBcryptHash, []byte(secret))
}

// HashBcrypt returns a tagged bcrypt hash of secret.
func HashBcrypt(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	// The bcrypt string starts with "$"; the tag replaces that separator.
	return tagBcrypt + string(h), nil
}

// HashArgon2 returns a tagged argon2id hash of secret under a fresh salt.
func HashArgon2(secret string) (string, error) {
	salt, err := common.RandBytes(16)
	if err != nil {
		return "", err
	}
	h := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("%s$%s$%s", tagArgon2id,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(h)), nil
}
