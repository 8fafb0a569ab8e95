package storage

// FileStore abstracts where image bytes live. Keys are relative paths
// ("<uuid>.png", "thumb/<uuid>.png"); the store decides the real location.
// The purge worker and the ingest path both talk to the same store.
type FileStore interface {
	Save(key string, data []byte) error
	Remove(key string) error
	Exists(key string) (bool, error)
	// URL returns the public path a stored key is served from.
	URL(key string) string
}
