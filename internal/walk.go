package internal

import (
	"io/fs"
)

// walkDirs visits every directory of fsys depth-first, parents before
// children. Plain files and symlinks are not visited. A directory whose visit
// fails, or that cannot be read, is handed to skip and its subtree is
// abandoned; the walk carries on with its siblings.
func walkDirs(fsys fs.FS, visit func(p string) error, skip func(p string, err error)) {
	_ = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			skip(p, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			return nil
		}

		if err := visit(p); err != nil {
			skip(p, err)
			return fs.SkipDir
		}
		return nil
	})
}

// walkFiles visits every regular file of fsys. Directories that cannot be
// read are passed over.
func walkFiles(fsys fs.FS, visit func(p string)) {
	_ = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			visit(p)
		}
		return nil
	})
}
