package internal

/*
	watcher    --> single dispatch loop, waits on the backend and routes every batch.
	registrar  --> keeps the watch set in step with the directory tree.
	classifier --> moves created files into <dir>/<Category>/<name>.
	backend    --> inotify (linux) or fsnotify, hands out opaque watch handles.

	** Usage
	1 - create a watcher over a root path (recursive or not).
	2 - subscribe status hooks to print what happens.
	3 - Run until the context is cancelled or no directory is left to watch.
*/
