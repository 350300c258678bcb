package redis

const (
	// KeySnapshot holds the single versioned directory record.
	KeySnapshot = "golink:directory:snapshot"
)

// SnapshotKey returns the Redis key for the directory record.
func SnapshotKey() string {
	return KeySnapshot
}
