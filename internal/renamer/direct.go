package renamer

import (
	"fmt"
	"os"
	"path/filepath"

	"namenizer/internal/errors"
	"namenizer/shared/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var renameFunc = os.Rename

// DirectRenamer renames files one by one through the filesystem.
type DirectRenamer struct {
	logger *zap.Logger
}

func NewDirect(logger *zap.Logger) *DirectRenamer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectRenamer{logger: logger}
}

func (r *DirectRenamer) Name() string { return StrategyDirect }

// Rename attempts every path of the batch and collects per-file errors.
func (r *DirectRenamer) Rename(batch shared.RenameBatch) shared.BatchResult {
	result := shared.BatchResult{
		BatchID:  batch.ID,
		Strategy: r.Name(),
	}

	for _, o := range plan(batch.Paths, r.logger) {
		if !o.runnable() {
			result.Outcomes = append(result.Outcomes, o.outcome(o.err))
			continue
		}

		var err error
		if rerr := r.renameOne(o); rerr != nil {
			err = errors.RenameFailed(o.path, rerr)
			r.logger.Warn("Rename failed", zap.Error(err))
		} else {
			r.logger.Info("Renamed to composed form", zap.String("path", o.dst()))
		}
		result.Outcomes = append(result.Outcomes, o.outcome(err))
	}

	return result
}

func (r *DirectRenamer) renameOne(o op) error {
	srcInfo, err := os.Lstat(o.src())
	if err != nil {
		return err
	}

	dstInfo, err := os.Lstat(o.dst())
	if err != nil || !os.SameFile(srcInfo, dstInfo) {
		// Nothing at the composed name, or an unrelated file that is
		// overwritten.
		return renameFunc(o.src(), o.dst())
	}

	// Normalization-insensitive filesystems (ZFS, APFS) resolve the composed
	// name to the very same file, and a direct rename may keep the old
	// spelling. Hop through a temporary name instead.
	tmp := filepath.Join(o.dir, fmt.Sprintf(".%s.nfc-%s", o.to, uuid.New().String()[:8]))
	if err := renameFunc(o.src(), tmp); err != nil {
		return err
	}
	if err := renameFunc(tmp, o.dst()); err != nil {
		if rerr := renameFunc(tmp, o.src()); rerr == nil {
			return err
		}
		r.logger.Error("File left under temporary name",
			zap.String("path", tmp),
			zap.String("want", o.dst()),
			zap.Error(err))
		return err
	}
	return nil
}
