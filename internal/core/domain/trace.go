package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// TraceIDPrefix prefixes every flow trace id.
const TraceIDPrefix = "msfl-"

// GenerateTraceID returns a time-ordered id for one establish/login flow.
// Format: msfl-{ulid_lowercase}.
func GenerateTraceID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	return TraceIDPrefix + strings.ToLower(id.String())
}
