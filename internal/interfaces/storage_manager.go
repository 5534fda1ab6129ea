package interfaces

// StorageManager provides access to all storage interfaces.
type StorageManager interface {
	DocumentStorage() DocumentStorage
	Close() error
}
