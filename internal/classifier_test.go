package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "create parent of %s", path)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644), "write %s", path)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "read %s", path)
	return string(data)
}

func TestClassifier_MovesIntoCategoryFolder(t *testing.T) {
	c := NewClassifier(DefaultCategoryTable(), Overwrite)

	testTable := []struct {
		name     string
		category string
	}{
		{name: "song.mp3", category: CategoryAudio},
		{name: "report.pdf", category: CategoryDocuments},
		{name: "photo.png", category: CategoryImages},
		{name: "clip.mp4", category: CategoryVideo},
	}

	for _, td := range testTable {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, td.name), td.name)

		o := c.Classify(dir, td.name)
		require.Equal(t, Moved, o.Result, "classify %s: %v", td.name, o.Err)
		require.Equal(t, td.category, o.Category)
		require.Equal(t, filepath.Join(dir, td.category, td.name), o.Destination)
		require.Equal(t, td.name, readFile(t, o.Destination))
		require.NoFileExists(t, filepath.Join(dir, td.name))
	}
}

func TestClassifier_Skips(t *testing.T) {
	c := NewClassifier(DefaultCategoryTable(), Overwrite)
	dir := t.TempDir()

	testTable := []struct {
		name   string
		reason SkipReason
	}{
		{name: "notes", reason: SkipNoExtension},
		{name: ".profile", reason: SkipNoExtension},
		{name: "setup.exe", reason: SkipNoCategory},
		{name: "LOUD.MP3", reason: SkipNoCategory},
	}

	for _, td := range testTable {
		writeFile(t, filepath.Join(dir, td.name), "x")

		o := c.Classify(dir, td.name)
		require.Equal(t, Skipped, o.Result, td.name)
		require.Equal(t, td.reason, o.Reason, td.name)
		require.FileExists(t, filepath.Join(dir, td.name))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, e.IsDir(), "no category folder expected, got %s", e.Name())
	}
}

func TestClassifier_SkipsInsideOwnCategoryFolder(t *testing.T) {
	c := NewClassifier(DefaultCategoryTable(), Overwrite)
	dir := filepath.Join(t.TempDir(), CategoryAudio)
	writeFile(t, filepath.Join(dir, "song.mp3"), "x")

	o := c.Classify(dir, "song.mp3")
	require.Equal(t, Skipped, o.Result)
	require.Equal(t, SkipCategorized, o.Reason)
	require.FileExists(t, filepath.Join(dir, "song.mp3"))
	require.NoDirExists(t, filepath.Join(dir, CategoryAudio))
}

func TestClassifier_CustomTable(t *testing.T) {
	table, err := NewCategoryTable(Category{Name: "Code", Extensions: []string{"go"}})
	require.NoError(t, err)
	c := NewClassifier(table, Overwrite)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main")
	writeFile(t, filepath.Join(dir, "song.mp3"), "x")

	require.Equal(t, Moved, c.Classify(dir, "main.go").Result)
	require.FileExists(t, filepath.Join(dir, "Code", "main.go"))

	o := c.Classify(dir, "song.mp3")
	require.Equal(t, Skipped, o.Result)
	require.Equal(t, SkipNoCategory, o.Reason)
}

func TestClassifier_Overwrite(t *testing.T) {
	c := NewClassifier(DefaultCategoryTable(), Overwrite)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, CategoryDocuments, "a.txt"), "old")
	writeFile(t, filepath.Join(dir, "a.txt"), "new")

	o := c.Classify(dir, "a.txt")
	require.Equal(t, Moved, o.Result)
	require.Equal(t, "new", readFile(t, o.Destination))
	require.NoFileExists(t, filepath.Join(dir, "a.txt"))
}

func TestClassifier_FailOnCollision(t *testing.T) {
	c := NewClassifier(DefaultCategoryTable(), Fail)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, CategoryDocuments, "a.txt"), "old")
	writeFile(t, filepath.Join(dir, "a.txt"), "new")

	o := c.Classify(dir, "a.txt")
	require.Equal(t, Failed, o.Result)
	require.Equal(t, IOExists, o.ErrKind)
	require.ErrorIs(t, o.Err, ErrDestinationExists)
	require.Equal(t, "old", readFile(t, filepath.Join(dir, CategoryDocuments, "a.txt")))
	require.Equal(t, "new", readFile(t, filepath.Join(dir, "a.txt")))
}

func TestClassifier_Dedupe(t *testing.T) {
	c := NewClassifier(DefaultCategoryTable(), Dedupe)
	dir := t.TempDir()

	{ // identical content, source dropped
		writeFile(t, filepath.Join(dir, CategoryImages, "same.png"), "pixels")
		writeFile(t, filepath.Join(dir, "same.png"), "pixels")

		o := c.Classify(dir, "same.png")
		require.Equal(t, Moved, o.Result)
		require.True(t, o.Deduplicated)
		require.NoFileExists(t, filepath.Join(dir, "same.png"))
		require.Equal(t, "pixels", readFile(t, o.Destination))
	}

	{ // different content, overwritten
		writeFile(t, filepath.Join(dir, CategoryImages, "diff.png"), "old pixels")
		writeFile(t, filepath.Join(dir, "diff.png"), "new pixels")

		o := c.Classify(dir, "diff.png")
		require.Equal(t, Moved, o.Result)
		require.False(t, o.Deduplicated)
		require.Equal(t, "new pixels", readFile(t, o.Destination))
	}

	{ // nothing at the destination yet
		writeFile(t, filepath.Join(dir, "fresh.png"), "pixels")

		o := c.Classify(dir, "fresh.png")
		require.Equal(t, Moved, o.Result)
		require.False(t, o.Deduplicated)
	}
}

func TestClassifier_FailureIsReported(t *testing.T) {
	c := NewClassifier(DefaultCategoryTable(), Overwrite)
	dir := t.TempDir()

	{ // category folder name taken by a plain file
		writeFile(t, filepath.Join(dir, CategoryAudio), "not a folder")
		writeFile(t, filepath.Join(dir, "song.mp3"), "x")

		o := c.Classify(dir, "song.mp3")
		require.Equal(t, Failed, o.Result)
		require.Error(t, o.Err)
		require.FileExists(t, filepath.Join(dir, "song.mp3"))
	}

	{ // source already moved by an earlier event
		o := c.Classify(dir, "gone.pdf")
		require.Equal(t, Failed, o.Result)
		require.Equal(t, IONotFound, o.ErrKind)
	}
}

func TestParseCollisionPolicy(t *testing.T) {
	for _, p := range []CollisionPolicy{Overwrite, Fail, Dedupe} {
		got, err := ParseCollisionPolicy(p.String())
		require.NoError(t, err)
		require.Equal(t, p, got)
	}

	got, err := ParseCollisionPolicy("")
	require.NoError(t, err)
	require.Equal(t, Overwrite, got)

	_, err = ParseCollisionPolicy("rename")
	require.ErrorIs(t, err, ErrCollisionPolicy)
}
