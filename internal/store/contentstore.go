// Package store implements the content-addressed blob store described in
// spec §4.1: a SHA-1 keyed data directory with a mutable label index, served
// from a single actor so that mutations are linearized without any external
// locking (the same "global mutable registry → message-passing service"
// pattern used by the teacher's mail/activity services).
package store

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/theater-rt/theater/internal/theaterid"
)

// diskStore is the on-disk implementation backing the ContentStore actor. It
// is not safe for concurrent use on its own — correctness instead comes from
// every call being routed through the single-threaded Service actor.
type diskStore struct {
	root string

	// labels caches each label's ordered, deduplicated ref list in
	// memory, mirrored to disk on every mutation. Avoids re-parsing the
	// label file on every get_by_label call.
	labels map[theaterid.Label][]theaterid.ContentRef
}

func newDiskStore(root string) (*diskStore, error) {
	dataDir := filepath.Join(root, "data")
	labelsDir := filepath.Join(root, "labels")

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating data dir: %v", ErrStoreIo, err)
	}
	if err := os.MkdirAll(labelsDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating labels dir: %v", ErrStoreIo, err)
	}

	ds := &diskStore{
		root:   root,
		labels: make(map[theaterid.Label][]theaterid.ContentRef),
	}

	if err := ds.loadLabels(labelsDir); err != nil {
		return nil, err
	}

	return ds, nil
}

func (ds *diskStore) dataPath(ref theaterid.ContentRef) string {
	return filepath.Join(ds.root, "data", ref.String())
}

func (ds *diskStore) labelPath(label theaterid.Label) string {
	return filepath.Join(ds.root, "labels", url.PathEscape(label.String()))
}

func (ds *diskStore) loadLabels(labelsDir string) error {
	entries, err := os.ReadDir(labelsDir)
	if err != nil {
		return fmt.Errorf("%w: reading labels dir: %v", ErrStoreIo, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name, err := url.PathUnescape(entry.Name())
		if err != nil {
			// Skip files that don't round-trip; they weren't
			// written by this store.
			continue
		}

		refs, err := ds.readLabelFile(filepath.Join(labelsDir, entry.Name()))
		if err != nil {
			return err
		}

		ds.labels[theaterid.Label(name)] = refs
	}

	return nil
}

func (ds *diskStore) readLabelFile(path string) ([]theaterid.ContentRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading label file: %v", ErrStoreIo, err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	refs := make([]theaterid.ContentRef, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		ref, err := theaterid.ParseContentRef(line)
		if err != nil {
			return nil, fmt.Errorf("%w: corrupt label file %s: %v",
				ErrStoreCorruption, path, err)
		}

		refs = append(refs, ref)
	}

	return refs, nil
}

func (ds *diskStore) writeLabelFile(label theaterid.Label) error {
	refs := ds.labels[label]

	var sb strings.Builder
	for _, ref := range refs {
		sb.WriteString(ref.String())
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(ds.labelPath(label), []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("%w: writing label file: %v", ErrStoreIo, err)
	}

	return nil
}

// store writes bytes to disk if not already present and returns its
// ContentRef. Idempotent: storing identical bytes twice returns the same
// ref and does not rewrite the file.
func (ds *diskStore) store(data []byte) (theaterid.ContentRef, error) {
	ref := theaterid.HashContent(data)

	path := ds.dataPath(ref)
	if _, err := os.Stat(path); err == nil {
		return ref, nil
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return theaterid.ContentRef{}, fmt.Errorf(
			"%w: writing content file: %v", ErrStoreIo, err,
		)
	}

	if err := os.Rename(tmp, path); err != nil {
		return theaterid.ContentRef{}, fmt.Errorf(
			"%w: finalizing content file: %v", ErrStoreIo, err,
		)
	}

	return ref, nil
}

// get reads back the bytes for ref, verifying the hash still matches.
func (ds *diskStore) get(ref theaterid.ContentRef) ([]byte, error) {
	data, err := os.ReadFile(ds.dataPath(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: content ref %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("%w: reading content file: %v", ErrStoreIo, err)
	}

	if got := theaterid.HashContent(data); got != ref {
		return nil, fmt.Errorf(
			"%w: content ref %s hashes to %s", ErrStoreCorruption, ref, got,
		)
	}

	return data, nil
}

func (ds *diskStore) exists(ref theaterid.ContentRef) bool {
	_, err := os.Stat(ds.dataPath(ref))
	return err == nil
}

// label appends ref to label's ref-list with set semantics: duplicates
// coalesce.
func (ds *diskStore) label(label theaterid.Label, ref theaterid.ContentRef) error {
	refs := ds.labels[label]
	for _, existing := range refs {
		if existing == ref {
			return nil
		}
	}

	ds.labels[label] = append(refs, ref)

	return ds.writeLabelFile(label)
}

// removeFromLabel removes ref from label's ref-list, if present.
func (ds *diskStore) removeFromLabel(label theaterid.Label, ref theaterid.ContentRef) error {
	refs := ds.labels[label]

	filtered := make([]theaterid.ContentRef, 0, len(refs))
	for _, existing := range refs {
		if existing != ref {
			filtered = append(filtered, existing)
		}
	}

	if len(filtered) == len(refs) {
		return nil
	}

	ds.labels[label] = filtered

	return ds.writeLabelFile(label)
}

// putAtLabel stores data and labels it, atomically from the caller's
// perspective: either both the content and label mutation are visible, or
// neither is (a store failure leaves the label untouched).
func (ds *diskStore) putAtLabel(label theaterid.Label, data []byte) (theaterid.ContentRef, error) {
	ref, err := ds.store(data)
	if err != nil {
		return theaterid.ContentRef{}, err
	}

	if err := ds.label(label, ref); err != nil {
		return theaterid.ContentRef{}, err
	}

	return ref, nil
}

// replaceAtLabel stores data and sets label's ref-list to exactly [ref].
func (ds *diskStore) replaceAtLabel(label theaterid.Label, data []byte) (theaterid.ContentRef, error) {
	ref, err := ds.store(data)
	if err != nil {
		return theaterid.ContentRef{}, err
	}

	ds.labels[label] = []theaterid.ContentRef{ref}

	if err := ds.writeLabelFile(label); err != nil {
		return theaterid.ContentRef{}, err
	}

	return ref, nil
}

func (ds *diskStore) getByLabel(label theaterid.Label) []theaterid.ContentRef {
	refs := ds.labels[label]
	out := make([]theaterid.ContentRef, len(refs))
	copy(out, refs)
	return out
}

func (ds *diskStore) listLabels() []theaterid.Label {
	out := make([]theaterid.Label, 0, len(ds.labels))
	for label := range ds.labels {
		out = append(out, label)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

func (ds *diskStore) totalSize() (uint64, error) {
	entries, err := os.ReadDir(filepath.Join(ds.root, "data"))
	if err != nil {
		return 0, fmt.Errorf("%w: reading data dir: %v", ErrStoreIo, err)
	}

	var total uint64
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return 0, fmt.Errorf("%w: stat-ing content file: %v", ErrStoreIo, err)
		}

		total += uint64(info.Size())
	}

	return total, nil
}
