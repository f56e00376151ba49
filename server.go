package main

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pgavlin/letratag/internal/label"
	"github.com/pgavlin/letratag/internal/logger"
	"github.com/pgavlin/letratag/internal/printer/preview"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>letratag</title></head>
<body>
{{if .Message}}<p class="message">{{.Message}}</p>{{end}}
<form method="post" action="/print">
  <input type="text" name="text" placeholder="Label content" required>
  <select name="type">
    <option value="barcode">Barcode</option>
    <option value="text">Text</option>
  </select>
  <button type="submit">Print</button>
  <button type="submit" formaction="/print?preview=1" formtarget="_blank">Preview</button>
</form>
</body>
</html>
`))

type server struct {
	printer      *label.Printer
	previewScale int

	// m serializes access to the printer.
	m sync.Mutex
}

func (s *server) handleIndex(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, struct{ Message string }{req.URL.Query().Get("msg")}); err != nil {
		logger.Error("Error rendering index", zap.Error(err))
	}
}

func (s *server) handlePrint(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	text := strings.TrimSpace(req.FormValue("text"))
	mode, err := label.ParseMode(req.FormValue("type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.URL.Query().Get("preview") != "" {
		s.handlePreview(w, req, text, mode)
		return
	}

	s.m.Lock()
	err = s.printer.Print(req.Context(), text, mode)
	s.m.Unlock()

	msg := "Printing " + string(mode) + "..."
	if err != nil {
		logger.Error("Error printing label", zap.String("mode", string(mode)), zap.Error(err))
		msg = "Error: " + err.Error()
	}
	http.Redirect(w, req, "/?msg="+url.QueryEscape(msg), http.StatusSeeOther)
}

// handlePreview renders without taking s.m, so previews never wait on the printer. The renderer serializes its own
// calls.
func (s *server) handlePreview(w http.ResponseWriter, req *http.Request, text string, mode label.Mode) {
	var buf bytes.Buffer
	p := label.Printer{Renderer: s.printer.Renderer, Driver: preview.New(&buf, s.previewScale)}
	if err := p.Print(req.Context(), text, mode); err != nil {
		logger.Warn("Error rendering preview", zap.Error(err))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Warn("Error writing preview", zap.Error(err))
	}
}

func (s *server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/print", s.handlePrint)
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

func serve(address string, p *label.Printer, previewScale int) error {
	s := &server{printer: p, previewScale: previewScale}
	logger.Info("Serving", zap.String("address", address))
	return http.ListenAndServe(address, s.handler())
}
