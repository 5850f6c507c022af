package server

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// staticHandler serves files from dir. Directories go through http.FileServer
// and get a listing; regular files are served as-is, so /static/index.html
// answers 200 instead of FileServer's redirect to the directory.
func staticHandler(dir string) http.Handler {
	root := http.Dir(dir)
	files := http.FileServer(root)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/") || name == "/" {
			files.ServeHTTP(w, r)
			return
		}

		f, err := root.Open(name)
		if err != nil {
			writeFSError(w, err)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			writeFSError(w, err)
			return
		}
		if info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

func writeFSError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		http.Error(w, "404 page not found", http.StatusNotFound)
	case errors.Is(err, fs.ErrPermission):
		http.Error(w, "403 Forbidden", http.StatusForbidden)
	default:
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
	}
}
