package nestile

import (
	"path/filepath"

	"github.com/google/renameio/v2"
)

// Sink stores the bytes of a saved document
type Sink interface {
	Store(b []byte) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(b []byte) error

// Store calls f(b)
func (f SinkFunc) Store(b []byte) error {
	return f(b)
}

// FileSink stores documents in the named file. The data is written to a
// temporary file in the same directory and renamed over the target so a
// failed save leaves the previous contents intact. An existing file keeps its
// permissions.
type FileSink string

// Store writes b to the file
func (f FileSink) Store(b []byte) error {
	name := string(f)
	return renameio.WriteFile(name, b, 0o644, renameio.WithTempDir(filepath.Dir(name)), renameio.WithExistingPermissions())
}
