// internal/namenizer/namenizer.go
package namenizer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"namenizer/internal/config"
	"namenizer/internal/journal"
	"namenizer/internal/normalize"
	"namenizer/internal/renamer"
	"namenizer/internal/scanner"
	"namenizer/shared/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Namenizer is the request/response API used by front ends: scan a
// directory, inspect labels, compose a selection of files.
type Namenizer struct {
	Logger     *zap.Logger
	Classifier *normalize.Classifier
	Scanner    *scanner.Scanner
	Renamer    renamer.BatchRenamer
	// Journal is nil when history recording is disabled.
	Journal *journal.Store
}

// New wires a Namenizer from cfg.
func New(cfg *config.Config, logger *zap.Logger) (*Namenizer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	classifier, err := normalize.NewClassifier(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	r, err := renamer.New(renamer.Options{
		Strategy:   cfg.Strategy,
		ScriptName: cfg.ScriptName,
		Logger:     logger.Named("renamer"),
	})
	if err != nil {
		return nil, err
	}

	n := &Namenizer{
		Logger:     logger,
		Classifier: classifier,
		Scanner:    scanner.New(classifier, logger.Named("scanner")),
		Renamer:    r,
	}

	if cfg.Journal.Enabled {
		store, err := journal.Open(journal.Options{Path: cfg.Journal.Path})
		if err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		n.Journal = store
	}

	return n, nil
}

// ScanDirectoryTree builds the subdirectory tree rooted at path.
func (n *Namenizer) ScanDirectoryTree(path string) *shared.DirectoryNode {
	return n.Scanner.BuildTree(path)
}

// ScanDirectoryFiles lists the files directly inside path, newest first.
func (n *Namenizer) ScanDirectoryFiles(path string) ([]shared.FileRecord, error) {
	return n.Scanner.ListFiles(path)
}

// IsFileDecomposed reports whether name is stored in NFD.
func (n *Namenizer) IsFileDecomposed(name string) bool {
	return n.Classifier.Classify(name).IsDecomposed()
}

// RenameFilesToComposed renames the decomposed files among paths to their
// composed names. Existing paths whose name is not decomposed are reported
// as skipped; missing paths always fail. The result is OK only if every
// attempted rename succeeded. A failed batch is never retried.
func (n *Namenizer) RenameFilesToComposed(paths []string) shared.BatchResult {
	batch := shared.RenameBatch{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
	}

	var skipped []shared.RenameOutcome
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = filepath.Clean(p)
		}
		name := filepath.Base(abs)
		if _, err := os.Lstat(abs); err != nil {
			// Let the renamer report it as failed.
			batch.Paths = append(batch.Paths, abs)
			continue
		}
		if !n.IsFileDecomposed(name) {
			n.Logger.Info("Already composed", zap.String("path", abs))
			skipped = append(skipped, shared.RenameOutcome{Path: abs, From: name, To: name, Skipped: true})
			continue
		}
		batch.Paths = append(batch.Paths, abs)
	}

	var result shared.BatchResult
	if len(batch.Paths) == 0 {
		n.Logger.Info("Nothing to rename")
		result = shared.BatchResult{BatchID: batch.ID, Strategy: n.Renamer.Name()}
	} else {
		result = n.Renamer.Rename(batch)
	}
	result.Outcomes = append(result.Outcomes, skipped...)

	if result.OK() {
		n.Logger.Info("Batch renamed",
			zap.String("batch", batch.ID),
			zap.Int("renamed", len(result.Renamed())))
	} else {
		n.Logger.Warn("Batch failed",
			zap.String("batch", batch.ID),
			zap.Int("failed", len(result.Failures())),
			zap.Error(result.Err))
	}

	if n.Journal != nil && len(batch.Paths) > 0 {
		if _, err := n.Journal.Record(batch, result); err != nil {
			n.Logger.Warn("Failed to record batch", zap.Error(err))
		}
	}

	return result
}

// ComposeDirectory renames every decomposed file directly inside path and
// returns the batch result together with a fresh scan.
func (n *Namenizer) ComposeDirectory(path string) (shared.BatchResult, []shared.FileRecord, error) {
	records, err := n.ScanDirectoryFiles(path)
	if err != nil {
		return shared.BatchResult{}, records, err
	}

	result := n.RenameFilesToComposed(scanner.Decomposed(records))

	records, err = n.ScanDirectoryFiles(path)
	return result, records, err
}

func (n *Namenizer) Close() error {
	if n.Journal != nil {
		return n.Journal.Close()
	}
	return nil
}
