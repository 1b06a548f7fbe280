package presentation

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed web/*
var webFS embed.FS

// MountStatic serves the storefront page. Must be mounted after the API.
func MountStatic(r chi.Router) error {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		return err
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFileFS(w, r, sub, "index.html")
	})
	r.Mount("/", http.FileServer(http.FS(sub)))
	return nil
}
