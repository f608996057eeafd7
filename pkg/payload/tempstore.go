package payload

import (
	"path"
	"strings"

	"github.com/spf13/afero"
)

// TempStore reports whether a temporary upload is still retrievable.
type TempStore interface {
	Exists(handle string) bool
}

// FSTempStore looks uploads up under a directory of an afero filesystem.
type FSTempStore struct {
	fs  afero.Fs
	dir string
}

// NewFSTempStore creates a temp store rooted at dir.
func NewFSTempStore(fs afero.Fs, dir string) *FSTempStore {
	return &FSTempStore{fs: fs, dir: dir}
}

// Exists implements TempStore. Handles escaping the directory never exist.
func (s *FSTempStore) Exists(handle string) bool {
	clean := path.Clean("/" + strings.ReplaceAll(handle, "\\", "/"))
	if handle == "" || clean == "/" {
		return false
	}
	ok, err := afero.Exists(s.fs, path.Join(s.dir, clean))
	return err == nil && ok
}
