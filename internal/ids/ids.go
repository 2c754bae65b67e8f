// Package ids generates sortable identifiers for issued tokens.
package ids

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New returns a ULID for the current time. IDs generated by one process are
// strictly increasing.
func New() string {
	return NewAt(time.Now())
}

// NewAt returns a ULID with the timestamp part set to t.
func NewAt(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Time returns the millisecond timestamp encoded in id.
func Time(id string) (time.Time, error) {
	u, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse id %q: %w", id, err)
	}
	return ulid.Time(u.Time()).UTC(), nil
}
