package server

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"net/http"
)

//go:embed static/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

type indexData struct {
	DefaultPath string
	Version     string
}

// getIndex serves the single-page UI.
func (s *Server) getIndex(ctx context.Context, w http.ResponseWriter, _ *http.Request, _ map[string]string) error {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, indexData{
		DefaultPath: s.cfg.DefaultPath,
		Version:     s.cfg.Version,
	}); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(buf.Bytes())
	return err
}
