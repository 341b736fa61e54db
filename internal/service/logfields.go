package service

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// emailHash returns a short stable digest of an email address for log
// correlation. Raw addresses never reach the logs.
func emailHash(email string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(email))
}
