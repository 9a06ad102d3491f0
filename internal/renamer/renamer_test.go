package renamer

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"namenizer/internal/errors"
	"namenizer/shared/types"

	"github.com/kballard/go-shellquote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	cafeNFD = "cafe\u0301.txt"
	cafeNFC = "caf\u00e9.txt"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(name), 0644))
	return p
}

func names(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

func requireBash(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(DefaultShell); err != nil {
		t.Skip("bash not available")
	}
}

// renamers returns both strategies so that the shared contract is checked
// against each of them.
func renamers(t *testing.T) map[string]BatchRenamer {
	t.Helper()
	out := map[string]BatchRenamer{
		StrategyDirect: NewDirect(zap.NewNop()),
	}
	if _, err := exec.LookPath(DefaultShell); err == nil {
		out[StrategyScript] = NewScript(zap.NewNop(), ScriptOptions{})
	}
	return out
}

func TestRenameComposesDecomposedNames(t *testing.T) {
	for name, r := range renamers(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			src := touch(t, dir, cafeNFD)
			touch(t, dir, "resume.txt")

			res := r.Rename(shared.RenameBatch{ID: "b1", Paths: []string{src}})
			require.True(t, res.OK(), "outcomes: %+v err: %v", res.Outcomes, res.Err)
			assert.Equal(t, "b1", res.BatchID)
			assert.Equal(t, name, res.Strategy)

			require.Len(t, res.Outcomes, 1)
			assert.Equal(t, cafeNFD, res.Outcomes[0].From)
			assert.Equal(t, cafeNFC, res.Outcomes[0].To)
			assert.Len(t, res.Renamed(), 1)

			assert.ElementsMatch(t, []string{cafeNFC, "resume.txt"}, names(t, dir))
			data, err := os.ReadFile(filepath.Join(dir, cafeNFC))
			require.NoError(t, err)
			assert.Equal(t, cafeNFD, string(data))
		})
	}
}

func TestRenameComposedNameIsNoop(t *testing.T) {
	for name, r := range renamers(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			p := touch(t, dir, cafeNFC)
			ascii := touch(t, dir, "resume.txt")

			res := r.Rename(shared.RenameBatch{Paths: []string{p, ascii}})
			assert.True(t, res.OK())
			for _, o := range res.Outcomes {
				assert.True(t, o.Skipped)
			}
			assert.Empty(t, res.Renamed())
			assert.ElementsMatch(t, []string{cafeNFC, "resume.txt"}, names(t, dir))
		})
	}
}

func TestRenameFailsWholeBatchOnMissingFile(t *testing.T) {
	for name, r := range renamers(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			good := touch(t, dir, cafeNFD)
			missing := filepath.Join(dir, "re\u0301sume\u0301-missing.txt")

			res := r.Rename(shared.RenameBatch{Paths: []string{missing, good}})
			assert.False(t, res.OK())

			failures := res.Failures()
			require.Len(t, failures, 1)
			assert.Equal(t, missing, failures[0].Path)
			assert.True(t, errors.IsType(failures[0].Err, errors.ErrorTypeRenameFailed))

			// The valid entry was still attempted.
			assert.Contains(t, names(t, dir), cafeNFC)
		})
	}
}

func TestRenameFailsOnMissingComposedName(t *testing.T) {
	for name, r := range renamers(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			missing := filepath.Join(dir, "does-not-exist.txt")

			res := r.Rename(shared.RenameBatch{Paths: []string{missing}})
			assert.False(t, res.OK())

			failures := res.Failures()
			require.Len(t, failures, 1)
			assert.Equal(t, missing, failures[0].Path)
			assert.True(t, errors.IsType(failures[0].Err, errors.ErrorTypeRenameFailed))
			assert.ErrorIs(t, failures[0].Err, os.ErrNotExist)
		})
	}
}

func TestRenameSkipsHiddenEntries(t *testing.T) {
	for name, r := range renamers(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			hidden := touch(t, dir, ".cafe\u0301")

			res := r.Rename(shared.RenameBatch{Paths: []string{hidden}})
			assert.True(t, res.OK())
			require.Len(t, res.Outcomes, 1)
			assert.True(t, res.Outcomes[0].Skipped)
			assert.Equal(t, []string{".cafe\u0301"}, names(t, dir))
		})
	}
}

func TestRenameOverwritesExistingComposedFile(t *testing.T) {
	for name, r := range renamers(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			src := touch(t, dir, cafeNFD)
			require.NoError(t, os.WriteFile(filepath.Join(dir, cafeNFC), []byte("old"), 0644))

			res := r.Rename(shared.RenameBatch{Paths: []string{src}})
			require.True(t, res.OK())

			data, err := os.ReadFile(filepath.Join(dir, cafeNFC))
			require.NoError(t, err)
			assert.Equal(t, cafeNFD, string(data))
			assert.Equal(t, []string{cafeNFC}, names(t, dir))
		})
	}
}

func TestRenameEmptyBatch(t *testing.T) {
	for name, r := range renamers(t) {
		t.Run(name, func(t *testing.T) {
			res := r.Rename(shared.RenameBatch{})
			assert.True(t, res.OK())
			assert.Empty(t, res.Outcomes)
		})
	}
}

func TestDirectRenameSurfacesRenameError(t *testing.T) {
	dir := t.TempDir()
	src := touch(t, dir, cafeNFD)

	orig := renameFunc
	renameFunc = func(string, string) error { return os.ErrPermission }
	t.Cleanup(func() { renameFunc = orig })

	res := NewDirect(nil).Rename(shared.RenameBatch{Paths: []string{src}})
	assert.False(t, res.OK())
	require.Len(t, res.Failures(), 1)
	assert.ErrorIs(t, res.Failures()[0].Err, os.ErrPermission)
}

func TestScriptQuotesSpecialCharacters(t *testing.T) {
	requireBash(t)

	dir := filepath.Join(t.TempDir(), `it's a "dir"`)
	require.NoError(t, os.Mkdir(dir, 0755))
	nfd := `my "cafe` + "\u0301" + `" isn't $HOME.txt`
	nfc := `my "caf` + "\u00e9" + `" isn't $HOME.txt`
	src := touch(t, dir, nfd)

	res := NewScript(zap.NewNop(), ScriptOptions{}).Rename(shared.RenameBatch{Paths: []string{src}})
	require.True(t, res.OK(), "output: %s err: %v", res.Output, res.Err)
	assert.Equal(t, []string{nfc}, names(t, dir))
}

func TestScriptIsRemovedAfterRun(t *testing.T) {
	requireBash(t)

	dir := t.TempDir()
	src := touch(t, dir, cafeNFD)

	res := NewScript(nil, ScriptOptions{Name: "custom.sh"}).Rename(shared.RenameBatch{Paths: []string{src}})
	require.True(t, res.OK())
	for _, n := range names(t, dir) {
		assert.False(t, strings.HasSuffix(n, ".sh"), "leftover script %s", n)
	}
}

func TestScriptCleanupFailureIsIgnored(t *testing.T) {
	requireBash(t)

	dir := t.TempDir()
	src := touch(t, dir, cafeNFD)

	orig := removeFile
	removeFile = func(string) error { return os.ErrPermission }
	t.Cleanup(func() { removeFile = orig })

	core, logs := observer.New(zap.WarnLevel)
	res := NewScript(zap.New(core), ScriptOptions{}).Rename(shared.RenameBatch{Paths: []string{src}})
	require.True(t, res.OK(), "output: %s err: %v", res.Output, res.Err)
	assert.NoError(t, res.Err)
	assert.Contains(t, names(t, dir), cafeNFC)

	entries := logs.FilterMessage("Ignoring cleanup failure").All()
	require.Len(t, entries, 1)
	err, ok := entries[0].ContextMap()["error"].(string)
	require.True(t, ok)
	assert.Contains(t, err, "removing rename script")
}

func TestScriptLaunchFailure(t *testing.T) {
	dir := t.TempDir()
	src := touch(t, dir, cafeNFD)

	var scriptPath string
	orig := runScript
	runScript = func(shell, script, dir string) ([]byte, error) {
		scriptPath = script
		return []byte("boom\n"), &os.PathError{Op: "fork/exec", Path: shell, Err: os.ErrNotExist}
	}
	t.Cleanup(func() { runScript = orig })

	res := NewScript(zap.NewNop(), ScriptOptions{}).Rename(shared.RenameBatch{Paths: []string{src}})
	assert.False(t, res.OK())
	assert.True(t, errors.IsType(res.Err, errors.ErrorTypeScriptExecutionFailed))
	assert.Equal(t, "boom\n", res.Output)
	require.Len(t, res.Failures(), 1)

	// Nothing was renamed and the script is gone.
	assert.Equal(t, []string{cafeNFD}, names(t, dir))
	_, err := os.Stat(scriptPath)
	assert.True(t, os.IsNotExist(err))
}

func TestBuildScript(t *testing.T) {
	ops := []op{
		{dir: "/tmp/a b", from: "it's", to: "it is"},
		{dir: "/tmp", from: `"q"`, to: "$x"},
	}
	script := buildScript(ops)
	lines := strings.Split(strings.TrimSpace(script), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "#!/bin/bash", lines[0])
	assert.Equal(t, "exit $status", lines[4])

	for i, o := range ops {
		cmd := strings.TrimSuffix(lines[i+2], " || status=1")
		words, err := shellquote.Split(cmd)
		require.NoError(t, err)
		assert.Equal(t, []string{"mv", "-f", o.src(), o.dst()}, words)
	}
}

func TestNew(t *testing.T) {
	r, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, StrategyDirect, r.Name())

	r, err = New(Options{Strategy: StrategyScript})
	require.NoError(t, err)
	assert.Equal(t, StrategyScript, r.Name())

	_, err = New(Options{Strategy: "ftp"})
	assert.Error(t, err)
}
