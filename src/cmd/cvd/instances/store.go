package instances

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/linuxkit/cvd/src/cmd/cvd/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	storeFileName = "instance_database.json"
	jsonGroups    = "Groups"
)

type storeRecord struct {
	Groups []groupRecord `json:"Groups"`
}

// DefaultStorePath returns the per-user location of the store.
func DefaultStorePath() string {
	return filepath.Join(os.TempDir(), "cvd", strconv.Itoa(os.Getuid()), storeFileName)
}

// FileStorage persists groups as a single JSON document. Updates are
// serialized with an advisory lock on a sibling ".lock" file and installed
// by renaming a fully written temporary file over the document, so readers
// never observe a partial write and need no lock.
type FileStorage struct {
	path string
}

// NewFileStorage returns a store backed by the document at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the location of the document.
func (s *FileStorage) Path() string { return s.path }

func (s *FileStorage) lockPath() string { return s.path + ".lock" }

// Load reads every group from the document. A missing or empty document
// holds no groups.
func (s *FileStorage) Load() ([]*InstanceGroup, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StoreError{Op: "read", Path: s.path, Err: err}
	}
	groups, err := decodeStore(data)
	if err != nil {
		return nil, &StoreError{Op: "parse", Path: s.path, Err: err}
	}
	return groups, nil
}

// Update locks the store, applies fn to the current groups and atomically
// writes the result back.
func (s *FileStorage) Update(fn func(groups []*InstanceGroup) ([]*InstanceGroup, error)) error {
	lock, err := util.Lock(s.lockPath())
	if err != nil {
		return &StoreError{Op: "lock", Path: s.lockPath(), Err: err}
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Errorf("unable to release lock %s on instance database: %v", s.lockPath(), err)
		}
	}()

	groups, err := s.Load()
	if err != nil {
		return err
	}
	updated, err := fn(groups)
	if err != nil {
		return err
	}
	if err := s.write(updated); err != nil {
		return &StoreError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

func (s *FileStorage) write(groups []*InstanceGroup) error {
	data, err := encodeStore(groups)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating store directory")
	}
	tmpFile, err := os.CreateTemp(dir, "."+storeFileName+"-*")
	if err != nil {
		return errors.Wrap(err, "creating temp store file")
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return errors.Wrap(err, "writing store data")
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return errors.Wrap(err, "syncing temp store file")
	}
	if err := tmpFile.Close(); err != nil {
		return errors.Wrap(err, "closing temp store file")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return errors.Wrapf(err, "renaming store file to %s", s.path)
	}

	success = true
	return nil
}

func encodeStore(groups []*InstanceGroup) ([]byte, error) {
	doc := storeRecord{Groups: make([]groupRecord, 0, len(groups))}
	for _, g := range groups {
		doc.Groups = append(doc.Groups, newGroupRecord(g))
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding store")
	}
	return append(data, '\n'), nil
}

func decodeStore(data []byte) ([]*InstanceGroup, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	fields, err := decodeObject(data)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedDocument, err.Error())
	}
	raw, ok := fields[jsonGroups]
	if !ok {
		return nil, errors.Wrapf(ErrMalformedDocument, "missing field %q", jsonGroups)
	}
	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, errors.Wrapf(ErrMalformedDocument, "field %q is not an array", jsonGroups)
	}
	groups := make([]*InstanceGroup, 0, len(docs))
	for n, doc := range docs {
		g, err := DeserializeGroup(doc)
		if err != nil {
			return nil, errors.Wrapf(err, "group #%d", n)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// MemoryStorage keeps groups in memory. It is safe for concurrent use.
type MemoryStorage struct {
	mu     sync.Mutex
	groups []*InstanceGroup
}

// NewMemoryStorage returns a store holding groups.
func NewMemoryStorage(groups ...*InstanceGroup) *MemoryStorage {
	return &MemoryStorage{groups: groups}
}

// Load returns a copy of the held groups.
func (m *MemoryStorage) Load() ([]*InstanceGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*InstanceGroup(nil), m.groups...), nil
}

// Update applies fn under the store's mutex.
func (m *MemoryStorage) Update(fn func(groups []*InstanceGroup) ([]*InstanceGroup, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	updated, err := fn(append([]*InstanceGroup(nil), m.groups...))
	if err != nil {
		return err
	}
	m.groups = updated
	return nil
}
