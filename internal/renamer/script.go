package renamer

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"namenizer/internal/errors"
	"namenizer/shared/types"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
)

const (
	DefaultScriptName = "rename_to_nfc.sh"
	DefaultShell      = "/bin/bash"
)

var removeFile = os.Remove

// runScript executes script with shell in dir and returns its combined
// stdout and stderr.
var runScript = func(shell, script, dir string) ([]byte, error) {
	cmd := exec.Command(shell, script)
	cmd.Dir = dir
	cmd.Stdin = nil
	return cmd.CombinedOutput()
}

type ScriptOptions struct {
	// Name is the base name of the generated script. The script is written
	// as a hidden file derived from it so that scans never list it.
	Name  string
	Shell string
}

// ScriptRenamer writes all renames of a batch into one shell script of
// quoted mv commands, runs it and removes it again.
type ScriptRenamer struct {
	opts   ScriptOptions
	logger *zap.Logger
}

func NewScript(logger *zap.Logger, opts ScriptOptions) *ScriptRenamer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Name == "" {
		opts.Name = DefaultScriptName
	}
	if opts.Shell == "" {
		opts.Shell = DefaultShell
	}
	return &ScriptRenamer{opts: opts, logger: logger}
}

func (r *ScriptRenamer) Name() string { return StrategyScript }

// buildScript returns the script that renames ops. Each command is attempted;
// the script exits non-zero if any of them failed.
func buildScript(ops []op) string {
	var b strings.Builder
	b.WriteString("#!/bin/bash\nstatus=0\n")
	for _, o := range ops {
		b.WriteString("mv -f ")
		b.WriteString(shellquote.Join(o.src(), o.dst()))
		b.WriteString(" || status=1\n")
	}
	b.WriteString("exit $status\n")
	return b.String()
}

// Rename runs the batch through a generated script. Per-file outcomes are
// recovered afterwards by checking which composed names exist on disk.
func (r *ScriptRenamer) Rename(batch shared.RenameBatch) shared.BatchResult {
	result := shared.BatchResult{
		BatchID:  batch.ID,
		Strategy: r.Name(),
	}

	ops := plan(batch.Paths, r.logger)
	todo := pending(ops)
	if len(todo) == 0 {
		for _, o := range ops {
			result.Outcomes = append(result.Outcomes, o.outcome(o.err))
		}
		return result
	}

	dir := scriptDir(todo)
	script, err := r.writeScript(dir, buildScript(todo))
	if err != nil {
		result.Err = errors.ScriptExecutionFailed(dir, err)
		r.logger.Error("Failed to write rename script", zap.Error(result.Err))
		for _, o := range ops {
			if !o.runnable() {
				result.Outcomes = append(result.Outcomes, o.outcome(o.err))
			} else {
				result.Outcomes = append(result.Outcomes, o.outcome(errors.RenameFailed(o.path, err)))
			}
		}
		return result
	}
	r.logger.Debug("Rename script created", zap.String("script", script))

	out, runErr := runScript(r.opts.Shell, script, dir)
	result.Output = string(out)
	if len(bytes.TrimSpace(out)) > 0 {
		r.logger.Info("Rename script output", zap.String("output", result.Output))
	}
	if runErr != nil {
		result.Err = errors.ScriptExecutionFailed(script, runErr)
		r.logger.Warn("Rename script failed", zap.Error(result.Err))
	}

	if err := removeFile(script); err != nil {
		r.logger.Warn("Ignoring cleanup failure", zap.Error(errors.CleanupFailed(script, err)))
	}

	for _, o := range ops {
		if !o.runnable() {
			result.Outcomes = append(result.Outcomes, o.outcome(o.err))
			continue
		}
		result.Outcomes = append(result.Outcomes, o.outcome(verify(o)))
	}

	return result
}

func (r *ScriptRenamer) writeScript(dir, content string) (string, error) {
	name := strings.TrimSuffix(r.opts.Name, ".sh")
	f, err := os.CreateTemp(dir, "."+name+"-*.sh")
	if err != nil {
		return "", err
	}

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Chmod(0o755); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// scriptDir picks the first existing directory of the batch to hold the
// script.
func scriptDir(ops []op) string {
	for _, o := range ops {
		if info, err := os.Stat(o.dir); err == nil && info.IsDir() {
			return o.dir
		}
	}
	return ops[0].dir
}

// verify checks that o's composed name is on disk and the decomposed one is
// gone.
func verify(o op) error {
	hasTo, err := hasEntry(o.dir, o.to)
	if err != nil {
		return errors.RenameFailed(o.path, err)
	}
	hasFrom, err := hasEntry(o.dir, o.from)
	if err != nil {
		return errors.RenameFailed(o.path, err)
	}
	if !hasTo || hasFrom {
		return errors.RenameFailed(o.path, fmt.Errorf("%q was not renamed to %q", o.from, o.to))
	}
	return nil
}
