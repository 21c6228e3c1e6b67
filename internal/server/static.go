package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// spaHandler serves the built frontend. Paths that are not files fall back
// to index.html so client-side routes survive a reload.
type spaHandler struct {
	dir string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		notFound(w, r)
		return
	}

	clean := filepath.Clean("/" + r.URL.Path)
	path := filepath.Join(h.dir, filepath.FromSlash(clean))

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		// index.html must not be cached so new builds are picked up.
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
		return
	}

	if strings.HasPrefix(clean, "/assets/") {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}
	http.FileServer(http.Dir(h.dir)).ServeHTTP(w, r)
}
