package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/internal/domain"
)

const (
	fileSuffix = "_urls.json"
	dirPerm    = 0o755
	filePerm   = 0o644
)

var fileNameReplacer = strings.NewReplacer("/", "_", `\`, "_")

// FileStore keeps one pretty-printed JSON array per company under a root
// directory. Writes go to a temporary file that is renamed over the
// collection, so a reader sees either the old or the new collection.
type FileStore struct {
	root  string
	locks *KeyedMutex
	log   infralogger.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at root. The directory is created on
// the first write.
func NewFileStore(root string, log infralogger.Logger) *FileStore {
	if log == nil {
		log = infralogger.NewNop()
	}
	return &FileStore{
		root:  root,
		locks: NewKeyedMutex(),
		log:   log,
	}
}

// Root returns the storage directory.
func (s *FileStore) Root() string {
	return s.root
}

// Path returns the file holding company's collection.
func (s *FileStore) Path(company string) string {
	return filepath.Join(s.root, fileKey(company)+fileSuffix)
}

// fileKey is the company key as it appears in the file name. Names that
// share a file share a lock.
func fileKey(company string) string {
	return fileNameReplacer.Replace(domain.CompanyKey(company))
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, company string) ([]domain.URLRecord, error) {
	return s.load(company)
}

func (s *FileStore) load(company string) ([]domain.URLRecord, error) {
	path := s.Path(company)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.URLRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrStorageUnavailable, path, err)
	}

	return decodeCollection(data, s.log.With(infralogger.String("path", path))), nil
}

// Merge implements Store. Merges for the same company are serialized.
func (s *FileStore) Merge(_ context.Context, company string, records []domain.URLRecord) ([]domain.URLRecord, error) {
	key := fileKey(company)
	unlock := s.locks.Lock(key)
	defer unlock()

	existing, err := s.load(company)
	if err != nil {
		return nil, err
	}

	merged, added := mergeRecords(existing, records)
	if err = s.write(s.Path(company), merged); err != nil {
		return nil, err
	}

	s.log.Debug("collection merged",
		infralogger.String("company_key", key),
		infralogger.Int("added", added),
		infralogger.Int("total", len(merged)))
	return merged, nil
}

// Companies implements Store.
func (s *FileStore) Companies(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", domain.ErrStorageUnavailable, s.root, err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileSuffix))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) write(path string, records []domain.URLRecord) (err error) {
	if err = os.MkdirAll(s.root, dirPerm); err != nil {
		return fmt.Errorf("%w: create %s: %w", domain.ErrStorageUnavailable, s.root, err)
	}

	tmp, err := os.CreateTemp(s.root, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", domain.ErrStorageUnavailable, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err = enc.Encode(records); err != nil {
		return fmt.Errorf("%w: encode collection: %w", domain.ErrStorageUnavailable, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %w", domain.ErrStorageUnavailable, tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", domain.ErrStorageUnavailable, tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), filePerm); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", domain.ErrStorageUnavailable, tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: replace %s: %w", domain.ErrStorageUnavailable, path, err)
	}
	return nil
}

// decodeCollection decodes a stored array. Undecodable data is logged as
// corrupt and read as an empty collection.
func decodeCollection(data []byte, log infralogger.Logger) []domain.URLRecord {
	var records []domain.URLRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Warn("stored collection unreadable, treating as empty",
			infralogger.Error(fmt.Errorf("%w: %w", domain.ErrStorageCorrupt, err)))
		return []domain.URLRecord{}
	}
	if records == nil {
		return []domain.URLRecord{}
	}
	return records
}
