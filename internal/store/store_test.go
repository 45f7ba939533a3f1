package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/schemaforge/schemaforge/internal/schema"
)

func mkdirAndFile(dir, name string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644)
}

func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func sampleBundle(kind string, version int) Bundle {
	return Bundle{
		Record: &schema.SchemaRecord{
			Kind:                 kind,
			Version:              version,
			StructureFingerprint: "fp",
			FirstSeen:            time.Unix(0, 0).UTC(),
			LastSeen:             time.Unix(0, 0).UTC(),
			LastModified:         time.Unix(0, 0).UTC(),
			TotalReceived:        1,
		},
		ValidatorSource: "package events\n",
		InterfaceSource: "package events\n",
		ExamplesJSON:    []byte(`[]`),
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s, err := New(t.TempDir(), 256, 10)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Save("order/created", sampleBundle("order/created", 1)); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec, err := s.Load("order/created")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec == nil {
		t.Fatalf("expected a record after save")
	}
	if rec.Version != 1 {
		t.Fatalf("Version = %d, want 1", rec.Version)
	}
}

func TestSaveMetadataUpdatesCounterWithoutTouchingOtherArtifacts(t *testing.T) {
	root := t.TempDir()
	s, err := New(root, 256, 10)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	bundle := sampleBundle("order/created", 1)
	if err := s.Save("order/created", bundle); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec, err := s.Load("order/created")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rec.TotalReceived = 9
	if err := s.SaveMetadata("order/created", rec); err != nil {
		t.Fatalf("save metadata: %v", err)
	}

	// A fresh Store (cold cache) must read the bumped counter off disk.
	reopened, err := New(root, 256, 10)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reloaded, err := reopened.Load("order/created")
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if reloaded == nil {
		t.Fatalf("expected a record after SaveMetadata")
	}
	if reloaded.TotalReceived != 9 {
		t.Fatalf("TotalReceived = %d, want 9", reloaded.TotalReceived)
	}

	validator, err := os.ReadFile(filepath.Join(s.kindDir("order/created"), validatorFile))
	if err != nil {
		t.Fatalf("read validator source: %v", err)
	}
	if string(validator) != bundle.ValidatorSource {
		t.Fatalf("SaveMetadata must not modify generated artifacts, validator source changed")
	}
}

func TestLoadReturnsNilForUnknownKind(t *testing.T) {
	s, err := New(t.TempDir(), 256, 10)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rec, err := s.Load("never/seen")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record for unknown kind")
	}
}

func TestNestedKindBecomesNestedDirectory(t *testing.T) {
	s, err := New(t.TempDir(), 256, 10)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Save("z_api/received/text", sampleBundle("z_api/received/text", 1)); err != nil {
		t.Fatalf("save: %v", err)
	}
	kinds, err := s.ListKinds()
	if err != nil {
		t.Fatalf("list kinds: %v", err)
	}
	if len(kinds) != 1 || kinds[0] != "z_api/received/text" {
		t.Fatalf("ListKinds = %v, want [z_api/received/text]", kinds)
	}
}

func TestListKindsExcludesIncompleteArtifactSets(t *testing.T) {
	root := t.TempDir()
	s, err := New(root, 256, 10)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	// A directory with only a subset of the required files (simulating a
	// crash mid-save) must not be treated as a complete kind.
	partialDir := filepath.Join(root, "partial")
	if err := mkdirAndFile(partialDir, metadataFile); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := s.Save("complete", sampleBundle("complete", 1)); err != nil {
		t.Fatalf("save: %v", err)
	}

	kinds, err := s.ListKinds()
	if err != nil {
		t.Fatalf("list kinds: %v", err)
	}
	if len(kinds) != 1 || kinds[0] != "complete" {
		t.Fatalf("ListKinds = %v, want [complete]", kinds)
	}
}

func TestLoadTreatsIncompleteArtifactSetAsAbsent(t *testing.T) {
	root := t.TempDir()
	s, err := New(root, 256, 10)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := mkdirAndFile(filepath.Join(root, "partial"), metadataFile); err != nil {
		t.Fatalf("setup: %v", err)
	}
	rec, err := s.Load("partial")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected a partial artifact set to load as absent")
	}
}

func TestPruneRawSamplesEnforcesMaxRawSamples(t *testing.T) {
	s, err := New(t.TempDir(), 256, 2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 5; i++ {
		b := sampleBundle("order/created", 1)
		b.RawSample = []byte(`{"n":` + string(rune('0'+i)) + `}`)
		if err := s.Save("order/created", b); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		time.Sleep(2 * time.Millisecond) // ensure distinct mtimes for LRU ordering
	}
	dir := filepath.Join(s.kindDir("order/created"), rawSamplesDir)
	entries, err := readDirNames(dir)
	if err != nil {
		t.Fatalf("read raw samples dir: %v", err)
	}
	if len(entries) > 2 {
		t.Fatalf("raw sample count = %d, want <= 2", len(entries))
	}
}

func TestWithKindLockSerializesConcurrentWritersPerKind(t *testing.T) {
	s, err := New(t.TempDir(), 256, 10)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var mu sync.Mutex
	active := 0
	maxActive := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithKindLock("order/created", func() error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	if maxActive > 1 {
		t.Fatalf("observed %d concurrent critical sections for the same kind, want 1", maxActive)
	}
}

func TestWithKindLockAllowsConcurrencyAcrossDifferentKinds(t *testing.T) {
	s, err := New(t.TempDir(), 256, 10)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	var wg sync.WaitGroup

	for _, kind := range []string{"a", "b"} {
		kind := kind
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithKindLock(kind, func() error {
				started <- struct{}{}
				<-release
				return nil
			})
		}()
	}

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for first kind's critical section to start")
	}
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatalf("second kind's critical section never started concurrently with the first")
	}
	close(release)
	wg.Wait()
}
