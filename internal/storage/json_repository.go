package storage

// NewJSONRepository opens the JSON-file backed repository at path. It is the
// default backend for development and small single-node deployments.
func NewJSONRepository(path string, opts ...Option) (Repository, error) {
	store, err := NewStorage(path, opts...)
	if err != nil {
		return nil, err
	}
	return store, nil
}
