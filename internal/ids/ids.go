// Package ids generates the two identifier shapes the platform mints itself:
// ULID request ids for log and audit correlation, and UUIDv4 activation
// links. Entity ids come from storage (ObjectID), never from here.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewRequestID returns a lexicographically sortable id for the X-Request-Id
// header and the audit trail.
func NewRequestID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewActivationLink returns a canonical UUIDv4. The URL normalizer relies on
// this exact shape to classify activation path segments.
func NewActivationLink() string {
	return uuid.NewString()
}
