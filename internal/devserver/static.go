package devserver

import (
	"encoding/json"
	"html/template"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const indexFile = "index.html"

var overlayTemplate = template.Must(template.New("overlay").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Build problems</title></head>
<body style="font-family:monospace;background:#1e1e1e;color:#e8e8e8;padding:2em">
{{- if .Errors }}
<h2 style="color:#ff5555">Failed to compile</h2>
{{- range .Errors }}
<pre>{{ . }}</pre>
{{- end }}
{{- end }}
{{- if .Warnings }}
<h2 style="color:#f1fa8c">Compiled with warnings</h2>
{{- range .Warnings }}
<pre>{{ . }}</pre>
{{- end }}
{{- end }}
</body>
</html>
`))

// static serves the output directory and falls back to the index page for
// client side routes.
func (s *Server) static() http.Handler {
	files := http.FileServer(http.Dir(s.outDir))
	prefix := strings.TrimSuffix(s.cfg.Output.PublicPath, "/")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if prefix != "" {
			rest, ok := strings.CutPrefix(r.URL.Path, prefix)
			if !ok {
				http.NotFound(w, r)
				return
			}
			r.URL.Path = "/" + strings.TrimPrefix(rest, "/")
		}

		name := filepath.Join(s.outDir, filepath.FromSlash(path.Clean(r.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}

		if path.Ext(r.URL.Path) != "" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(s.outDir, indexFile))
	})
}

// overlay replaces page loads with the build problems while they last.
func (s *Server) overlay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isPageLoad(r) {
			next.ServeHTTP(w, r)
			return
		}

		problems := s.builder.Problems()
		show := s.cfg.DevServer.Overlay
		errs := problems.Errors
		if !show.Errors {
			errs = nil
		}
		warnings := problems.Warnings
		if !show.Warnings {
			warnings = nil
		}
		if len(errs) == 0 && len(warnings) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if len(errs) > 0 {
			w.WriteHeader(http.StatusInternalServerError)
		}
		if err := overlayTemplate.Execute(w, map[string][]string{"Errors": errs, "Warnings": warnings}); err != nil {
			s.opts.Logger.Error().Err(err).Msg("Failed to render overlay")
		}
	})
}

func isPageLoad(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	return path.Ext(r.URL.Path) == "" || path.Base(r.URL.Path) == indexFile
}

func (s *Server) problems(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.builder.Problems()); err != nil {
		s.opts.Logger.Error().Err(err).Msg("Failed to encode problems")
	}
}
