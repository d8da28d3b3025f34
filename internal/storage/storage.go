package storage

// Storage is a sink for named JSON documents.
type Storage interface {
	Put(name string, v any) error
}
