package domain

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PendingPrefix marks ids assigned client-side for records that must be
// created (not updated) in the cloud store.
const PendingPrefix = "temp-"

// UnsavedID is the sentinel used by forms for a record that was never saved.
const UnsavedID = "new"

var (
	idMu   sync.Mutex
	lastID int64
)

// NewID returns a time-based id (Unix milliseconds as a decimal string).
// Ids handed out by one process are strictly increasing.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()

	id := time.Now().UnixMilli()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return strconv.FormatInt(id, 10)
}

// NewPendingID returns an id that the cloud store will replace on first write.
func NewPendingID() string {
	return PendingPrefix + uuid.NewString()
}

// IsPendingLocal reports whether id has not been durably stored in the cloud
// yet and therefore must never be used as a cloud update or delete target.
func IsPendingLocal(id string) bool {
	return id == "" || id == UnsavedID || strings.HasPrefix(id, PendingPrefix)
}
