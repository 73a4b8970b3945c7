package storage

import "io"

// BlobStore holds uploaded assignment files. Keys are slash-separated
// relative paths, e.g. "assignments/<id>/<student>/<filename>".
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
}
