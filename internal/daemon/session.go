package daemon

import (
	"math"
	"sync/atomic"
	"time"

	appsync "github.com/kwestin/listsync/internal/sync"
)

// session holds the mutable per-sign-in sync state: the diff baseline
// snapshot and the time of the last successful push. The snapshot is only
// read or advanced under Engine.mu; lastPush is atomic because the echo
// check reads it outside the lock.
type session struct {
	userID   string
	snapshot appsync.Snapshot
	lastPush atomic.Int64
}

func newSession(userID string) *session {
	return &session{
		userID:   userID,
		snapshot: appsync.NewSnapshot(),
	}
}

// markPushed records a successful push at time t.
func (s *session) markPushed(t time.Time) {
	s.lastPush.Store(t.UnixNano())
}

// sincePush returns the time elapsed since the last successful push, or a
// very large duration if nothing was ever pushed.
func (s *session) sincePush() time.Duration {
	ns := s.lastPush.Load()
	if ns == 0 {
		return time.Duration(math.MaxInt64)
	}
	return time.Since(time.Unix(0, ns))
}
