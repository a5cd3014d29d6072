package taskrun_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	taskrun "github.com/goliatone/go-taskrun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFilesToEveryDestination(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "saxx.jar")
	require.NoError(t, os.WriteFile(src, []byte("jar"), 0o755))

	d1 := filepath.Join(root, "d1")
	d2 := filepath.Join(root, "d2")
	require.NoError(t, os.Mkdir(d1, 0o755))
	require.NoError(t, os.Mkdir(d2, 0o755))

	out := &bytes.Buffer{}
	shell := taskrun.NewShell(taskrun.WithShellOutput(out))

	require.NoError(t, shell.CopyFiles([]string{src}, []string{d1, d2}))

	for _, dir := range []string{d1, d2} {
		content, err := os.ReadFile(filepath.Join(dir, "saxx.jar"))
		require.NoError(t, err)
		assert.Equal(t, "jar", string(content))

		info, err := os.Stat(filepath.Join(dir, "saxx.jar"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	}

	assert.Equal(t,
		"cp "+src+" -> "+d1+"\n"+
			"cp "+src+" -> "+d2+"\n",
		out.String())
}

func TestCopyFilesSkipsMissingDestination(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.txt")
	b := filepath.Join(root, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o644))

	d1 := filepath.Join(root, "d1")
	d2 := filepath.Join(root, "d2")
	require.NoError(t, os.Mkdir(d1, 0o755))

	out := &bytes.Buffer{}
	shell := taskrun.NewShell(taskrun.WithShellOutput(out))

	require.NoError(t, shell.CopyFiles([]string{a, b}, []string{d1, d2}))

	assert.FileExists(t, filepath.Join(d1, "a.txt"))
	assert.FileExists(t, filepath.Join(d1, "b.txt"))
	assert.NoDirExists(t, d2)

	assert.Equal(t,
		"cp "+a+" -> "+d1+"\n"+
			"cp "+a+" -> "+d2+"\n"+
			"Directory not found "+d2+"\n"+
			"cp "+b+" -> "+d1+"\n"+
			"cp "+b+" -> "+d2+"\n"+
			"Directory not found "+d2+"\n",
		out.String())
}

func TestCopyFilesRelativePathsAreResolved(t *testing.T) {
	root := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(prev) })

	require.NoError(t, os.WriteFile("notes.txt", []byte("n"), 0o644))
	require.NoError(t, os.Mkdir("out", 0o755))

	out := &bytes.Buffer{}
	shell := taskrun.NewShell(taskrun.WithShellOutput(out))

	require.NoError(t, shell.CopyFiles([]string{"notes.txt"}, []string{"out"}))

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, "cp "+filepath.Join(wd, "notes.txt")+" -> "+filepath.Join(wd, "out")+"\n", out.String())
	assert.FileExists(t, filepath.Join("out", "notes.txt"))
}

func TestCopyFilesIntoOwnDirectoryKeepsContent(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	out := &bytes.Buffer{}
	shell := taskrun.NewShell(taskrun.WithShellOutput(out))

	err := shell.CopyFiles([]string{src}, []string{root})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY_SAME_FILE")

	content, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
	assert.Equal(t, "cp "+src+" -> "+root+"\n", out.String())
}

func TestCopyFilesMissingSourceFails(t *testing.T) {
	root := t.TempDir()
	out := &bytes.Buffer{}
	shell := taskrun.NewShell(taskrun.WithShellOutput(out))

	err := shell.CopyFiles([]string{filepath.Join(root, "missing.jar")}, []string{root})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.jar")
}

func TestCopyFilesNothingToDo(t *testing.T) {
	out := &bytes.Buffer{}
	shell := taskrun.NewShell(taskrun.WithShellOutput(out))

	require.NoError(t, shell.CopyFiles(nil, []string{"anywhere"}))
	require.NoError(t, shell.CopyFiles([]string{"anything"}, nil))
	assert.Empty(t, out.String())
}
