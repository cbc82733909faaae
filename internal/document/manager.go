package document

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docweave/docweave/internal/address"
)

const defaultCacheSize = 128

// ArchiveNamespace is the top-level directory archived documents move to.
const ArchiveNamespace = "archive"

// Manager is the rooted document store. All document paths are canonical
// ("/dir/name.md") and mapped under a single root directory; anything that
// would escape the root is rejected.
type Manager struct {
	root   string
	cache  *snapshotCache
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithCacheSize sets the snapshot cache capacity.
func WithCacheSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.cache = newSnapshotCache(n)
		}
	}
}

// NewManager opens a document store rooted at dir, creating the directory
// if needed.
func NewManager(dir string, logger *slog.Logger, opts ...Option) (*Manager, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving docs root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating docs root: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		root:   abs,
		cache:  newSnapshotCache(defaultCacheSize),
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Root returns the absolute docs root directory.
func (m *Manager) Root() string { return m.root }

// filePath maps a canonical document path onto the filesystem, rejecting
// anything that escapes the root.
func (m *Manager) filePath(docPath string) (string, error) {
	rel := strings.TrimPrefix(docPath, "/")
	fp := filepath.Join(m.root, filepath.FromSlash(rel))
	back, err := filepath.Rel(m.root, fp)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the docs root", docPath)
	}
	return fp, nil
}

// GetDocument returns the parsed snapshot for a document. Cached snapshots
// are revalidated against the file mtime on every hit, so external edits
// are picked up without an explicit invalidation.
func (m *Manager) GetDocument(docPath string) (*Snapshot, error) {
	fp, err := m.filePath(docPath)
	if err != nil {
		return nil, err
	}

	if snap, ok := m.cache.get(docPath); ok {
		if info, serr := os.Stat(fp); serr == nil && info.ModTime().Equal(snap.ModTime) {
			return snap, nil
		}
	}

	data, err := os.ReadFile(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: docPath}
		}
		return nil, fmt.Errorf("reading document %s: %w", docPath, err)
	}
	info, err := os.Stat(fp)
	if err != nil {
		return nil, fmt.Errorf("stat document %s: %w", docPath, err)
	}

	snap := NewSnapshot(docPath, string(data), info.ModTime())
	m.cache.put(docPath, snap)
	return snap, nil
}

// DocumentContent returns the raw content of a document.
func (m *Manager) DocumentContent(docPath string) (string, error) {
	snap, err := m.GetDocument(docPath)
	if err != nil {
		return "", err
	}
	return snap.Raw, nil
}

// SectionContent resolves slug within the document and returns the section
// body.
func (m *Manager) SectionContent(docPath, slug string) (string, error) {
	snap, err := m.GetDocument(docPath)
	if err != nil {
		return "", err
	}
	_, h, err := address.ResolveSection(snap.Index, snap.Address, slug)
	if err != nil {
		return "", err
	}
	return snap.SectionBody(h), nil
}

// WriteDocument atomically replaces a document's content: temp file in the
// same directory, then rename. The cached snapshot is invalidated once the
// write lands.
func (m *Manager) WriteDocument(docPath, content string) error {
	fp, err := m.filePath(docPath)
	if err != nil {
		return err
	}
	dir := filepath.Dir(fp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".docweave-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	// Preserve existing permissions; CreateTemp defaults to 0600.
	if info, serr := os.Stat(fp); serr == nil {
		_ = os.Chmod(tmpName, info.Mode())
	} else {
		_ = os.Chmod(tmpName, 0o644)
	}

	if err := os.Rename(tmpName, fp); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing document %s: %w", docPath, err)
	}

	m.cache.invalidate(docPath)
	return nil
}

// CreateDocument writes a new document, failing if the path already exists.
func (m *Manager) CreateDocument(docPath, content string) error {
	fp, err := m.filePath(docPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(fp); err == nil {
		return &AlreadyExistsError{Path: docPath}
	}
	return m.WriteDocument(docPath, content)
}

// DeleteDocument removes a document from disk and cache.
func (m *Manager) DeleteDocument(docPath string) error {
	fp, err := m.filePath(docPath)
	if err != nil {
		return err
	}
	if err := os.Remove(fp); err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Path: docPath}
		}
		return fmt.Errorf("deleting document %s: %w", docPath, err)
	}
	m.cache.invalidate(docPath)
	return nil
}

// RenameDocument moves a document to a new path, creating destination
// directories as needed. The destination must not exist.
func (m *Manager) RenameDocument(oldPath, newPath string) error {
	src, err := m.filePath(oldPath)
	if err != nil {
		return err
	}
	dst, err := m.filePath(newPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Path: oldPath}
		}
		return fmt.Errorf("stat document %s: %w", oldPath, err)
	}
	if _, err := os.Stat(dst); err == nil {
		return &AlreadyExistsError{Path: newPath}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("renaming document %s: %w", oldPath, err)
	}

	m.cache.invalidate(oldPath)
	m.cache.invalidate(newPath)
	return nil
}

// ArchiveDocument moves a document under the archive namespace, preserving
// its directory structure, and returns the new path.
func (m *Manager) ArchiveDocument(docPath string) (string, error) {
	if strings.HasPrefix(docPath, "/"+ArchiveNamespace+"/") {
		return "", fmt.Errorf("document %s is already archived", docPath)
	}
	newPath := "/" + ArchiveNamespace + docPath
	if err := m.RenameDocument(docPath, newPath); err != nil {
		return "", err
	}
	return newPath, nil
}

// ListDocuments walks the root and returns every document path, sorted.
// Hidden directories are skipped.
func (m *Manager) ListDocuments() ([]string, error) {
	var out []string
	err := filepath.WalkDir(m.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			m.logger.Warn("skipping unreadable path", "path", p, "error", walkErr)
			return nil
		}
		if d.IsDir() {
			if p != m.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(m.root, p)
		if err != nil {
			return nil
		}
		out = append(out, "/"+filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking docs root: %w", err)
	}
	sort.Strings(out)
	return out, nil
}

// InvalidateDocument evicts the cached snapshot for a path. Mutating
// callers invoke this after their write completes; the watcher invokes it
// for external edits.
func (m *Manager) InvalidateDocument(docPath string) {
	m.cache.invalidate(docPath)
	m.logger.Debug("invalidated document cache", "path", docPath)
}

// PurgeCache drops every cached snapshot.
func (m *Manager) PurgeCache() {
	m.cache.purge()
}
