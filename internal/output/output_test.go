package output_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x6d61/cybersec-ai/internal/output"
)

func TestDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", "output", "123_123_123_123_scan"), output.Dir("/data", "123.123.123.123"))
	assert.Equal(t, filepath.Join(".", "output", "example_com_scan"), output.Dir("", "example.com"))
}

func TestDirName_PathTraversal(t *testing.T) {
	name := output.DirName("../../etc")
	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, "..")
	assert.Equal(t, "unknown_scan", output.DirName(""))
}

func TestWriter_CreatesDirAndOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output", "10_0_0_5_scan")
	w := output.NewWriter(dir)

	path, err := w.Write("nmap_scan.txt", "first")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nmap_scan.txt"), path)

	_, err = w.Write("nmap_scan.txt", "second")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	assert.Equal(t, dir, w.Dir())
}

func TestWriter_EmptyContents(t *testing.T) {
	w := output.NewWriter(t.TempDir())

	path, err := w.Write("gobuster_scan.txt", "")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestWriter_RejectsPathInFileName(t *testing.T) {
	w := output.NewWriter(t.TempDir())

	_, err := w.Write("../escape.txt", "x")
	assert.Error(t, err)
	_, err = w.Write("", "x")
	assert.Error(t, err)
}
