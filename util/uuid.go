package util

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid"
	uuid "github.com/satori/go.uuid"
)

var (
	ulidLock    sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0) // nolint:gosec
)

func UUID() uuid.UUID {
	return uuid.Must(uuid.NewV4(), nil)
}

// ULID returns ULID of the given time; ULIDs of the same millisecond keep
// increasing.
func ULID(t time.Time) ulid.ULID {
	ulidLock.Lock()
	defer ulidLock.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), ulidEntropy)
}
