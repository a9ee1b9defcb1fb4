package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	common := []string{"--dir", dir, "--leaf-capacity", "16", "--shard-depth", "2"}
	with := func(args ...string) []string { return append(append([]string{}, args...), common...) }

	out, err := run(t, with("seed", "--count", "200", "--start-id", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "inserted 200 records")

	out, err = run(t, with("size")...)
	require.NoError(t, err)
	assert.Equal(t, "200", strings.TrimSpace(out))

	target := strings.Repeat("ab", 32)
	_, err = run(t, with("insert", "9999", target)...)
	require.NoError(t, err)

	out, err = run(t, with("search", target, "-k", "3")...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "comparisons: "))
	assert.Equal(t, "9999\t0", lines[1])

	out, err = run(t, with("print", filepath.Join(dir, "vp_tree.l.database"))...)
	require.NoError(t, err)
	assert.Contains(t, out, "internal radius=")

	out, err = run(t, with("verify")...)
	require.NoError(t, err)
	assert.Contains(t, out, "records:    201")
}

func TestSearchEmptyIndex(t *testing.T) {
	out, err := run(t, "--dir", t.TempDir(), "search", strings.Repeat("00", 32))
	require.NoError(t, err)
	assert.Contains(t, out, "no match")
}

func TestArgumentErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "--dir", dir, "search", "zz")
	assert.Error(t, err)

	_, err = run(t, "--dir", dir, "insert", "abc", strings.Repeat("00", 32))
	assert.Error(t, err)

	_, err = run(t, "--dir", dir, "--backend", "ftp", "size")
	assert.ErrorContains(t, err, "unknown backend")

	_, err = run(t, "--dir", dir, "--compression", "gzip", "size")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(t.TempDir(), "vpdb.yaml")
	yml := "dir: " + dir + "\nleaf_capacity: 4\nshard_depth: 1\ncompression: zstd\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, 4, cfg.LeafCapacity)
	assert.Equal(t, 1, cfg.ShardDepth)
	assert.Equal(t, "zstd", cfg.Compression)
	assert.Equal(t, "local", cfg.Backend)

	_, err = run(t, "--config", path, "seed", "--count", "20")
	require.NoError(t, err)

	// A capacity of 4 forces shard files below the root.
	_, err = os.Stat(filepath.Join(dir, "vp_tree.ln.database"))
	require.NoError(t, err)

	// Flags win over the file.
	out, err := run(t, "--config", path, "--dir", t.TempDir(), "size")
	require.NoError(t, err)
	assert.Equal(t, "0", strings.TrimSpace(out))

	_, err = loadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	cfg, err = loadConfig(empty)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("leaf_capacity: [1, 2]\n"), 0o644))
	_, err = loadConfig(bad)
	assert.Error(t, err)
}
