package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out trade identifiers for a given fill time.
type Generator interface {
	New(t time.Time) string
}

// ULID generates time-sortable identifiers.
//
// IDs generated within the same millisecond remain lexicographically
// increasing because entropy is drawn from ulid.Monotonic.
type ULID struct {
	mu   sync.Mutex
	mono io.Reader
}

// NewULID seeds a PRNG from crypto/rand so live IDs are unpredictable.
func NewULID() *ULID {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &ULID{mono: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)}
}

// Deterministic returns a ULID generator whose output depends only on seed
// and the timestamps passed to New. Backtests use it so repeated runs
// produce identical trade lists.
func Deterministic(seed int64) *ULID {
	return &ULID{mono: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)}
}

func (g *ULID) New(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t.UTC()), g.mono)
	if err != nil {
		// Only possible if time goes backwards past the monotonic window
		// or entropy fails.
		panic(err)
	}
	return id.String()
}

// CheckTime reports whether t can be encoded in a ULID: not before the
// Unix epoch and not past ulid.MaxTime.
func CheckTime(t time.Time) error {
	if t.Before(time.Unix(0, 0)) {
		return fmt.Errorf("time %s is before the Unix epoch", t.Format(time.RFC3339))
	}
	if ulid.Timestamp(t) > ulid.MaxTime() {
		return fmt.Errorf("time %s is past the last ULID timestamp", t.Format(time.RFC3339))
	}
	return nil
}

var std = NewULID()

// Default is the process-wide live generator shared by every simulator
// that is not given its own.
func Default() Generator { return std }

// New returns a ULID for the current time from the process-wide generator.
func New() string {
	return std.New(time.Now())
}
