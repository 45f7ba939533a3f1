package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/schemaforge/schemaforge/internal/schema"
)

const (
	validatorFile = "schema.validator.go"
	interfaceFile = "interface.go"
	examplesFile  = "examples.json"
	metadataFile  = "metadata.json"
	rawSamplesDir = "raw-samples"
)

// kindDir maps an EventKind onto a directory path, honoring "/" as a
// subdirectory separator (spec.md section 3 / 6). The Classifier has
// already sanitized every segment to be filesystem-safe.
func (s *Store) kindDir(kind string) string {
	segs := strings.Split(kind, "/")
	parts := append([]string{s.root}, segs...)
	return filepath.Join(parts...)
}

// requiredFiles is the completeness set a load() checks: a partial artifact
// set (e.g. from a crash mid-save) is treated as absent (spec.md section 7,
// Store-inconsistency).
var requiredFiles = []string{validatorFile, interfaceFile, examplesFile, metadataFile}

// Load returns the persisted SchemaRecord for kind, or nil if none exists
// or the on-disk state is incomplete. Readers never take the per-kind lock
// (spec.md section 4.H: "readers lock-free").
func (s *Store) Load(kind string) (*schema.SchemaRecord, error) {
	if rec, ok := s.cache.Get(kind); ok {
		return rec, nil
	}

	dir := s.kindDir(kind)
	for _, name := range requiredFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("store: stat %s: %w", name, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, fmt.Errorf("store: read metadata: %w", err)
	}
	var rec schema.SchemaRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("store: decode metadata: %w", err)
	}

	s.cache.Add(kind, &rec)
	return &rec, nil
}

// Save atomically persists b for kind: every artifact is written to a
// temporary file in the same directory and renamed into place, so a
// concurrent reader (or a crash mid-save) never observes a torn update
// (spec.md section 4.H). Callers must hold the per-kind lock (see
// Store.WithKindLock) for the duration of the call.
func (s *Store) Save(kind string, b Bundle) error {
	dir := s.kindDir(kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", dir, err)
	}

	metadataRaw, err := json.MarshalIndent(b.Record, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode metadata: %w", err)
	}

	writes := []struct {
		name string
		data []byte
	}{
		{validatorFile, []byte(b.ValidatorSource)},
		{interfaceFile, []byte(b.InterfaceSource)},
		{examplesFile, b.ExamplesJSON},
		{metadataFile, metadataRaw},
	}
	for _, w := range writes {
		if err := atomicWrite(filepath.Join(dir, w.name), w.data); err != nil {
			return fmt.Errorf("store: write %s: %w", w.name, err)
		}
	}

	s.cache.Remove(kind)
	s.cache.Add(kind, b.Record)

	if b.RawSample != nil {
		// Failure to persist a raw sample never fails the pipeline
		// (spec.md section 4.H).
		_ = s.saveRawSample(dir, b.RawSample)
	}

	if s.s3 != nil {
		go s.mirrorBundle(kind, b)
	}

	return nil
}

// SaveMetadata atomically rewrites only metadata.json for kind, leaving the
// generated artifacts untouched. This is the fast path for a re-observation
// that doesn't change the structure (spec.md section 4.H / 4.J step 6): the
// counters still must reach disk, since Load's LRU cache entry is evicted
// under memory pressure or lost entirely on restart, and the filesystem is
// the only durable, authoritative copy (store.go's "filesystem is
// authoritative" contract). Callers must hold the per-kind lock.
func (s *Store) SaveMetadata(kind string, rec *schema.SchemaRecord) error {
	dir := s.kindDir(kind)
	metadataRaw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode metadata: %w", err)
	}
	if err := atomicWrite(filepath.Join(dir, metadataFile), metadataRaw); err != nil {
		return fmt.Errorf("store: write %s: %w", metadataFile, err)
	}

	s.cache.Remove(kind)
	s.cache.Add(kind, rec)
	return nil
}

// atomicWrite implements write-to-temp-then-rename: the rename is atomic
// on every POSIX filesystem, so a reader either sees the old file in full
// or the new one, never a partial write.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp-" + fmt.Sprintf("%d", time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// saveRawSample writes an unredacted payload under raw-samples/<unix-ms>.json
// and prunes the oldest files beyond maxRawSamples (spec.md section 4.H).
func (s *Store) saveRawSample(kindDir string, raw []byte) error {
	dir := filepath.Join(kindDir, rawSamplesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("%d.json", time.Now().UnixMilli())
	if err := atomicWrite(filepath.Join(dir, name), raw); err != nil {
		return err
	}
	return s.pruneRawSamples(dir)
}

// pruneRawSamples keeps at most maxRawSamples files, deleting the oldest by
// modification time — the same LRU-by-mtime eviction strategy as the
// teacher's disk TTL/LRU cache.
func (s *Store) pruneRawSamples(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) <= s.maxRawSamples {
		return nil
	}

	type fileInfo struct {
		name    string
		modTime time.Time
	}
	files := make([]fileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{name: e.Name(), modTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })

	excess := len(files) - s.maxRawSamples
	for i := 0; i < excess; i++ {
		_ = os.Remove(filepath.Join(dir, files[i].name))
	}
	return nil
}

// ListKinds enumerates every persisted kind by walking the directory tree,
// reconstructing "/"-joined kinds from nested directories that carry a
// complete artifact set.
func (s *Store) ListKinds() ([]string, error) {
	var kinds []string
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == s.root {
			return nil
		}
		if d.Name() == rawSamplesDir {
			return filepath.SkipDir
		}
		complete := true
		for _, name := range requiredFiles {
			if _, statErr := os.Stat(filepath.Join(path, name)); statErr != nil {
				complete = false
				break
			}
		}
		if !complete {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return nil
		}
		kinds = append(kinds, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: walk %s: %w", s.root, err)
	}
	sort.Strings(kinds)
	return kinds, nil
}

// DiskUsage reports the total bytes under each top-level section of the
// store root, feeding GetAggregates().diskBytesBySection (spec.md section
// 6).
func (s *Store) DiskUsage() (map[string]int64, error) {
	usage := map[string]int64{}
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		section := d.Name()
		switch {
		case section == metadataFile:
			usage["metadata"] += info.Size()
		case section == examplesFile:
			usage["examples"] += info.Size()
		case section == validatorFile || section == interfaceFile:
			usage["artifacts"] += info.Size()
		case filepath.Base(filepath.Dir(path)) == rawSamplesDir:
			usage["raw_samples"] += info.Size()
		default:
			usage["other"] += info.Size()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: disk usage walk: %w", err)
	}
	return usage, nil
}
