// Package renamer renames decomposed (NFD) filenames to their composed
// (NFC) spelling. Two strategies exist: DirectRenamer calls rename(2) for
// every file, ScriptRenamer generates a shell script of mv commands and runs
// it.
package renamer

import (
	"fmt"
	"os"
	"path/filepath"

	"namenizer/internal/errors"
	"namenizer/internal/normalize"
	"namenizer/internal/scanner"
	"namenizer/shared/types"

	"go.uber.org/zap"
)

// BatchRenamer renames every path of a batch to its composed form. Every
// path is attempted; the returned result reports per-file outcomes and is
// OK only if all of them succeeded.
type BatchRenamer interface {
	Name() string
	Rename(batch shared.RenameBatch) shared.BatchResult
}

const (
	StrategyDirect = "direct"
	StrategyScript = "script"
)

// Options configures the renamer returned by New.
type Options struct {
	Strategy   string
	ScriptName string
	Shell      string
	Logger     *zap.Logger
}

// New returns the renamer for opts.Strategy. An empty strategy selects the
// direct renamer.
func New(opts Options) (BatchRenamer, error) {
	switch opts.Strategy {
	case "", StrategyDirect:
		return NewDirect(opts.Logger), nil
	case StrategyScript:
		return NewScript(opts.Logger, ScriptOptions{
			Name:  opts.ScriptName,
			Shell: opts.Shell,
		}), nil
	default:
		return nil, fmt.Errorf("unknown rename strategy %q", opts.Strategy)
	}
}

// op is one planned rename inside a single directory. err is set when the
// rename cannot even be attempted.
type op struct {
	path string
	dir  string
	from string
	to   string
	skip bool
	err  error
}

func (o op) src() string { return filepath.Join(o.dir, o.from) }
func (o op) dst() string { return filepath.Join(o.dir, o.to) }

func (o op) runnable() bool { return !o.skip && o.err == nil }

func (o op) outcome(err error) shared.RenameOutcome {
	return shared.RenameOutcome{
		Path:    o.path,
		From:    o.from,
		To:      o.to,
		Skipped: o.skip,
		Err:     err,
	}
}

// plan computes the composed name of every path. Hidden entries and names
// that composition leaves unchanged are marked as skipped, which makes
// renaming an NFC file a no-op. A path that does not exist fails whatever
// its spelling.
func plan(paths []string, logger *zap.Logger) []op {
	ops := make([]op, 0, len(paths))
	for _, p := range paths {
		dir, name := filepath.Split(filepath.Clean(p))
		o := op{
			path: p,
			dir:  filepath.Clean(dir),
			from: name,
			to:   normalize.Compose(name),
		}

		switch {
		case scanner.IsHidden(p):
			logger.Debug("Skipping hidden entry", zap.String("path", p))
			o.skip = true
		default:
			if _, err := os.Lstat(p); err != nil {
				o.err = errors.RenameFailed(p, err)
				logger.Warn("Rename failed", zap.Error(o.err))
			} else if o.from == o.to {
				logger.Debug("Already composed", zap.String("path", p))
				o.skip = true
			}
		}
		ops = append(ops, o)
	}
	return ops
}

// pending returns the ops that still have to be executed.
func pending(ops []op) []op {
	var out []op
	for _, o := range ops {
		if o.runnable() {
			out = append(out, o)
		}
	}
	return out
}

// hasEntry reports whether dir holds an entry named exactly name. Lstat is
// not enough: normalization-insensitive filesystems resolve both spellings.
func hasEntry(dir, name string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Name() == name {
			return true, nil
		}
	}
	return false, nil
}
