package pkg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ManouchehrRasoulli/rfsorter/internal"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(file, []byte(data), 0o644), "write %s", file)
	return file
}

func TestReadConfig_Yaml(t *testing.T) {
	file := writeConfig(t, "rfsorter.yml", `
path: /srv/inbox
recursive: true
collision: dedupe
lock: true
categories:
  - name: Code
    extensions: [go, rs]
  - name: Audio
    extensions: [mp3]
`)

	c, err := ReadConfig(file)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	require.Equal(t, "/srv/inbox", c.Path)
	require.True(t, c.Recursive)
	require.True(t, c.Lock)
	require.Equal(t, string(internal.BackendAuto), c.Backend, "default kept")
	require.Equal(t, defaultBuffer, c.Buffer, "default kept")

	policy, err := c.Policy()
	require.NoError(t, err)
	require.Equal(t, internal.Dedupe, policy)

	table, err := c.CategoryTable()
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	got, ok := table.Lookup("rs")
	require.True(t, ok)
	require.Equal(t, "Code", got)
	_, ok = table.Lookup("pdf")
	require.False(t, ok, "configured table replaces the built-in one")
}

func TestReadConfig_Toml(t *testing.T) {
	file := writeConfig(t, "rfsorter.toml", `
path = "/srv/inbox"
backend = "fsnotify"
collision = "fail"
buffer = 512

[[categories]]
name = "Books"
extensions = ["epub", "mobi"]
`)

	c, err := ReadConfig(file)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	require.Equal(t, "/srv/inbox", c.Path)
	require.False(t, c.Recursive)
	require.Equal(t, uint(512), c.Buffer)

	kind, err := c.BackendKind()
	require.NoError(t, err)
	require.Equal(t, internal.BackendFsnotify, kind)

	table, err := c.CategoryTable()
	require.NoError(t, err)
	got, ok := table.Lookup("mobi")
	require.True(t, ok)
	require.Equal(t, "Books", got)
}

func TestReadConfig_Errors(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.ErrorIs(t, err, ErrConfigRead)

	_, err = ReadConfig(writeConfig(t, "rfsorter.json", `{}`))
	require.ErrorIs(t, err, ErrConfigFormat)

	_, err = ReadConfig(writeConfig(t, "broken.yml", "path: [unterminated"))
	require.ErrorIs(t, err, ErrConfigDecode)

	_, err = ReadConfig(writeConfig(t, "broken.toml", "path = "))
	require.ErrorIs(t, err, ErrConfigDecode)
}

func TestConfig_Validate(t *testing.T) {
	testTable := []struct {
		name   string
		modify func(c *Config)
		err    error
	}{
		{name: "no path", modify: func(c *Config) { c.Path = "" }, err: ErrConfigPath},
		{name: "collision", modify: func(c *Config) { c.Collision = "rename" }, err: internal.ErrCollisionPolicy},
		{name: "backend", modify: func(c *Config) { c.Backend = "kqueue" }, err: internal.ErrBackendKind},
		{name: "duplicate category", modify: func(c *Config) {
			c.Categories = []CategoryConfig{
				{Name: "Audio", Extensions: []string{"mp3"}},
				{Name: "Audio", Extensions: []string{"wav"}},
			}
		}, err: internal.ErrCategoryDuplicate},
		{name: "dotted extension", modify: func(c *Config) {
			c.Categories = []CategoryConfig{{Name: "Audio", Extensions: []string{".mp3"}}}
		}, err: internal.ErrCategoryExtension},
	}

	for _, td := range testTable {
		c := DefaultConfig()
		c.Path = "/srv/inbox"
		td.modify(c)
		require.ErrorIs(t, c.Validate(), td.err, td.name)
	}

	c := DefaultConfig()
	c.Path = "/srv/inbox"
	require.NoError(t, c.Validate())
}

func TestConfig_Options(t *testing.T) {
	c := DefaultConfig()
	c.Path = t.TempDir()
	c.Recursive = true
	c.Backend = string(internal.BackendFsnotify)

	options, err := c.Options()
	require.NoError(t, err)
	require.Len(t, options, 5)

	rec := make(chan internal.Status, 16)
	w, err := internal.NewWatcher(c.Path, append(options, internal.WithStatusHook(func(s internal.Status) {
		select {
		case rec <- s:
		default:
		}
	}))...)
	require.NoError(t, err)
	defer w.Close()

	first := <-rec
	require.Equal(t, internal.StatusScanning, first.Kind, "recursive option applied")

	c.Collision = "rename"
	_, err = c.Options()
	require.ErrorIs(t, err, internal.ErrCollisionPolicy)
}
