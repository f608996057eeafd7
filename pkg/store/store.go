// Package store is a file-backed implementation of every collaborator the
// engine needs: resource reads and writes, template lookup, vocabulary
// labels and proposal persistence.
//
// Layout under the root directory:
//
//	resources/<id>.yaml
//	templates/<id>.yaml
//	vocabs/<id>.yaml
//	proposals/<id>.json
//
// The store works on any afero filesystem, so tests run in memory.
package store

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
)

const (
	resourcesDir = "resources"
	templatesDir = "templates"
	vocabsDir    = "vocabs"
	proposalsDir = "proposals"

	yamlExtension = ".yaml"
	jsonExtension = ".json"
)

// Store is a file store. It is safe for concurrent use.
type Store struct {
	fs     afero.Fs
	root   string
	logger *zerolog.Logger

	mu sync.RWMutex
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets the store logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		s.logger = logger
		return nil
	}
}

// New creates a store rooted at root on fs.
func New(fs afero.Fs, root string, opts ...Option) (*Store, error) {
	if fs == nil {
		return nil, &errors.ValidationError{Field: "fs", Message: "cannot be nil"}
	}
	s := &Store{fs: fs, root: root, logger: logging.Default()}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Open creates a store on the OS filesystem, expanding a leading ~.
func Open(root string, opts ...Option) (*Store, error) {
	return New(afero.NewOsFs(), expandHome(root), opts...)
}

// Root returns the store root directory.
func (s *Store) Root() string {
	return s.root
}

// FS returns the store filesystem.
func (s *Store) FS() afero.Fs {
	return s.fs
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func (s *Store) path(dir, name, ext string) string {
	return filepath.Join(s.root, dir, name+ext)
}

func idName(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *Store) readYAML(path string, v any) error {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	return nil
}

func (s *Store) writeYAML(path string, v any) error {
	data, err := yaml.MarshalWithOptions(v, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	return s.writeFile(path, data)
}

func (s *Store) writeFile(path string, data []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(s.fs, path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// list returns the base names of the files with ext in dir, sorted. A
// missing directory lists nothing.
func (s *Store) list(dir, ext string) ([]string, error) {
	full := filepath.Join(s.root, dir)
	ok, err := afero.DirExists(s.fs, full)
	if err != nil {
		return nil, errors.WrapIO("read", full, err)
	}
	if !ok {
		return nil, nil
	}
	infos, err := afero.ReadDir(s.fs, full)
	if err != nil {
		return nil, errors.WrapIO("read", full, err)
	}
	var names []string
	for _, info := range infos {
		if info.IsDir() || filepath.Ext(info.Name()) != ext {
			continue
		}
		names = append(names, strings.TrimSuffix(info.Name(), ext))
	}
	sort.Strings(names)
	return names, nil
}

// listIDs is list for numerically named files, sorted by id.
func (s *Store) listIDs(dir, ext string) ([]int64, error) {
	names, err := s.list(dir, ext)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			s.logger.Debug().Str("file", name+ext).Msg("Skipping file with non-numeric name")
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func notExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
