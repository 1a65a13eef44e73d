package storage

// Stores are named identifiers corresponding to key-value buckets
type Store string

const (
	DeviceNotificationsStore Store = "device_notifications" // The store used for the last device notification record.
)

// AllStores lists every store a backend must provision.
var AllStores = []Store{
	DeviceNotificationsStore,
}

func (storeType Store) String() string {
	return string(storeType)
}

// Backend names a key/value store implementation.
type Backend string

const (
	BackendBbolt  Backend = "bbolt"
	BackendSqlite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

func (b Backend) String() string {
	return string(b)
}

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, bool) {
	switch Backend(s) {
	case BackendBbolt, BackendSqlite, BackendMemory:
		return Backend(s), true
	}

	return "", false
}
