package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatWithCommas(t *testing.T) {
	cases := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		123456:   "123,456",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
		-12:      "-12",
	}
	for n, want := range cases {
		assert.Equal(t, want, FormatWithCommas(n), "n=%d", n)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "solar", Truncate("solar", 10))
	assert.Equal(t, "sol...", Truncate("solar", 3))
	assert.Equal(t, "äöü...", Truncate("äöüß", 3))
	assert.Equal(t, "solar", Truncate("solar", 0))
}

func TestIsOnlyNumbers(t *testing.T) {
	assert.True(t, IsOnlyNumbers("007"))
	assert.False(t, IsOnlyNumbers(""))
	assert.False(t, IsOnlyNumbers("12a"))
	assert.False(t, IsOnlyNumbers("-1"))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0644))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files left behind")

	err = WriteFileAtomic(filepath.Join(dir, "missing", "out.json"), []byte("x"), 0644)
	assert.Error(t, err)
}

func TestTOMLHelpers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	require.NoError(t, SaveTOMLFile(map[string]any{
		"s": map[string]any{"n": 3, "f": 1, "name": "x", "on": true},
	}, path))

	data, err := ParseTOMLMap(path)
	require.NoError(t, err)
	section, ok := Lookup[map[string]any](data, "s")
	require.True(t, ok)

	n, ok := ExtractInt(section, "n")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	f, ok := ExtractFloat64(section, "f")
	assert.True(t, ok)
	assert.Equal(t, 1.0, f)

	name, ok := Lookup[string](section, "name")
	assert.True(t, ok)
	assert.Equal(t, "x", name)

	_, ok = Lookup[bool](section, "name")
	assert.False(t, ok)
	_, ok = ExtractInt(section, "missing")
	assert.False(t, ok)

	var into struct {
		S struct {
			N int `toml:"n"`
		} `toml:"s"`
	}
	require.NoError(t, DecodeTOMLFile(path, &into))
	assert.Equal(t, 3, into.S.N)
}

func TestCheckDirStatus(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	res := CheckDirStatus(dir)
	assert.True(t, res.Exists)
	assert.True(t, res.Writable)
	assert.NoError(t, res.Error)
	assert.DirExists(t, dir)
}

func TestFindDataFile(t *testing.T) {
	pr, err := NewPathResolver()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wordlist.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))
	found, err := pr.FindDataFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, found)

	_, err = pr.FindDataFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	info := pr.GetRuntimeInfo()
	assert.NotEmpty(t, info["executable_dir"])
}
