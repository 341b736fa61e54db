// Package hash provides the Argon2id password hasher.
package hash

import (
	"fmt"

	"github.com/alexedwards/argon2id"
)

// params defines OWASP minimum parameters for Argon2id.
// Memory: 47 MiB, Iterations: 1, Parallelism: 1
var params = &argon2id.Params{
	Memory:      47 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2idHasher implements the PasswordHasher port with Argon2id in PHC
// format: $argon2id$v=19$m=48128,t=1,p=1$<salt>$<hash>
type Argon2idHasher struct{}

// NewArgon2idHasher creates an Argon2idHasher.
func NewArgon2idHasher() Argon2idHasher {
	return Argon2idHasher{}
}

// Hash returns an Argon2id hash of the plaintext with a random salt.
func (Argon2idHasher) Hash(plain string) (string, error) {
	return argon2id.CreateHash(plain, params)
}

// Verify reports whether plain matches the stored hash. The underlying
// argon2 library panics on malformed hashes with invalid parameters (t=0,
// p=0); the recover converts those to errors so Verify never panics.
func (Argon2idHasher) Verify(plain, hashed string) (match bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			match = false
			err = fmt.Errorf("invalid argon2id hash parameters: %v", r)
		}
	}()
	return argon2id.ComparePasswordAndHash(plain, hashed)
}
