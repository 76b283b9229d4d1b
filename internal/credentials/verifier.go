package credentials

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Verifier checks a presented secret against its stored reference. Both
// verification styles used by the portal live behind this one seam: the
// admin path compares configured plaintext values, centre staff compare
// against a bcrypt hash. The asymmetry is inherited behaviour; keeping both
// variants here makes it visible and fixable in one place.
type Verifier interface {
	Verify(stored, presented string) bool
}

// Plain compares the presented secret directly against the stored value.
type Plain struct{}

func (Plain) Verify(stored, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}

// Bcrypt verifies the presented secret against a stored bcrypt hash.
type Bcrypt struct{}

func (Bcrypt) Verify(storedHash, presented string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(presented)) == nil
}

// Hash produces a bcrypt hash for storage.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
