package redis

import "fmt"

// Key prefix for all locally persisted reliability-layer data
const keyPrefix = "courtsync"

// operationsKey returns the Redis key holding the queue snapshot
// (one JSON array, no schema versioning)
func operationsKey() string {
	return fmt.Sprintf("%s:outbox", keyPrefix)
}

// sessionKey returns the Redis key holding the cached auth session
func sessionKey() string {
	return fmt.Sprintf("%s:session", keyPrefix)
}
