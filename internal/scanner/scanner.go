// internal/scanner/scanner.go
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"namenizer/internal/errors"
	"namenizer/internal/normalize"
	"namenizer/shared/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Replaceable so tests can simulate unreadable directories and files even
// when running as root.
var (
	readDir  = os.ReadDir
	statFile = os.Stat
)

// Scanner lists directories and annotates the files it finds with their
// normalization label.
type Scanner struct {
	classifier *normalize.Classifier
	logger     *zap.Logger
}

// New creates a scanner. classifier may be nil, in which case labels are
// computed without caching.
func New(classifier *normalize.Classifier, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		classifier: classifier,
		logger:     logger,
	}
}

// IsHidden reports whether the entry at path is hidden on this platform.
func IsHidden(path string) bool {
	return isHidden(filepath.Dir(path), filepath.Base(path))
}

// BuildTree returns the directory tree rooted at path. Unreadable
// directories are logged and appear without children; the walk never
// aborts.
func (s *Scanner) BuildTree(path string) *shared.DirectoryNode {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	return s.buildNode(abs)
}

func (s *Scanner) buildNode(path string) *shared.DirectoryNode {
	node := &shared.DirectoryNode{
		ID:   uuid.New().String(),
		Path: path,
		Name: filepath.Base(path),
	}

	entries, err := readDir(path)
	if err != nil {
		s.logger.Warn("Skipping unreadable directory",
			zap.Error(errors.DirectoryUnreadable(path, err)))
		return node
	}

	for _, e := range entries {
		if !e.IsDir() || isHidden(path, e.Name()) {
			continue
		}
		node.Children = append(node.Children, s.buildNode(filepath.Join(path, e.Name())))
	}

	return node
}

// ListFiles returns the regular, non-hidden files directly inside path,
// newest first. Files whose attributes cannot be read are still listed
// with a zero size and the zero time. If path itself cannot be read the
// returned error is a DirectoryUnreadable error and the slice is empty.
func (s *Scanner) ListFiles(path string) ([]shared.FileRecord, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}

	entries, err := readDir(abs)
	if err != nil {
		derr := errors.DirectoryUnreadable(abs, err)
		s.logger.Warn("Failed to list files", zap.Error(derr))
		return []shared.FileRecord{}, derr
	}

	records := make([]shared.FileRecord, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || isHidden(abs, name) {
			continue
		}

		full := filepath.Join(abs, name)
		var (
			size    int64
			modTime time.Time
		)
		if info, err := statFile(full); err != nil {
			s.logger.Debug("Using default attributes",
				zap.Error(errors.AttributeUnavailable(full, err)))
		} else {
			size = info.Size()
			modTime = info.ModTime()
		}

		records = append(records, shared.FileRecord{
			ID:      uuid.New().String(),
			Name:    name,
			Size:    size,
			ModTime: modTime,
			Path:    full,
			Label:   s.classifier.Classify(name),
		})
	}

	SortRecords(records, SortByModTime, true)
	return records, nil
}

// SortKey selects the FileRecord field used by SortRecords.
type SortKey string

const (
	SortByName    SortKey = "name"
	SortBySize    SortKey = "size"
	SortByModTime SortKey = "modtime"
	SortByForm    SortKey = "form"
)

// ParseSortKey validates a user supplied sort key.
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(s); k {
	case SortByName, SortBySize, SortByModTime, SortByForm:
		return k, true
	}
	return "", false
}

// SortRecords sorts records in place. Ties keep their current order.
func SortRecords(records []shared.FileRecord, key SortKey, descending bool) {
	less := func(a, b shared.FileRecord) bool {
		switch key {
		case SortBySize:
			return a.Size < b.Size
		case SortByModTime:
			return a.ModTime.Before(b.ModTime)
		case SortByForm:
			return a.Label.String() < b.Label.String()
		default:
			return a.Name < b.Name
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if descending {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

// Summary counts records by normalization form.
type Summary struct {
	Total int
	NFC   int
	NFD   int
}

func Summarize(records []shared.FileRecord) Summary {
	var s Summary
	for _, r := range records {
		s.Total++
		if r.Label.IsDecomposed() {
			s.NFD++
		} else {
			s.NFC++
		}
	}
	return s
}

// Decomposed returns the paths of the records labelled NFD, in order.
func Decomposed(records []shared.FileRecord) []string {
	var paths []string
	for _, r := range records {
		if r.Label.IsDecomposed() {
			paths = append(paths, r.Path)
		}
	}
	return paths
}
