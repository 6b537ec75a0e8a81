package session

// Keys under which the credential pair is persisted.
const (
	AccessKey  = "access"
	RefreshKey = "refresh"
)

// Store is the persistent key-value store holding the credential pair.
// Clear must remove every given key or none of them.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Clear(keys ...string) error
}
