package discovery

import (
	"strconv"
	"time"
)

// Endpoint is a network address of one database node, including its
// assigned database path and load factor. Equality is (Host, Port).
type Endpoint struct {
	Host            string
	Port            uint32
	Database        string
	LoadFactor      float32
	PessimizedUntil time.Time
}

// Key is the (host, port) identity used to diff endpoint sets across
// discovery refreshes.
func (e Endpoint) Key() string {
	return e.Host + ":" + strconv.FormatUint(uint64(e.Port), 10)
}

func (e Endpoint) IsPessimized(now time.Time) bool {
	return now.Before(e.PessimizedUntil)
}
