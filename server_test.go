package main

import (
	"bytes"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"golang.org/x/image/font/basicfont"

	"github.com/pgavlin/letratag/internal/canvas"
	"github.com/pgavlin/letratag/internal/label"
	"github.com/pgavlin/letratag/internal/printer/preview"
	"github.com/pgavlin/letratag/internal/renderer"
)

func newTestServer(w *bytes.Buffer) *server {
	r := renderer.New(basicfont.Face7x13, renderer.Code128, renderer.DefaultSymbolOptions)
	return &server{
		printer:      &label.Printer{Renderer: r, Driver: preview.New(w, 1)},
		previewScale: 2,
	}
}

func postForm(h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	h := newTestServer(&bytes.Buffer{}).handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?msg=Printing+text...", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %v", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `action="/print"`) {
		t.Error("index has no print form")
	}
	if !strings.Contains(body, "Printing text...") {
		t.Error("index does not show the message")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status for unknown path = %v", rec.Code)
	}
}

func TestPrint(t *testing.T) {
	cases := []struct {
		kind string
		text string
		msg  string
	}{
		{"barcode", "1234567890", "Printing barcode..."},
		{"text", "Hello", "Printing text..."},
	}
	for _, c := range cases {
		t.Run(c.kind, func(t *testing.T) {
			var out bytes.Buffer
			h := newTestServer(&out).handler()

			rec := postForm(h, "/print", url.Values{"text": {c.text}, "type": {c.kind}})
			if rec.Code != http.StatusSeeOther {
				t.Fatalf("status = %v", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != "/?msg="+url.QueryEscape(c.msg) {
				t.Errorf("Location = %q", loc)
			}
			img, err := png.Decode(&out)
			if err != nil {
				t.Fatalf("nothing printed: %v", err)
			}
			if got, want := img.Bounds().Dy(), canvas.MaxHeight+2*preview.Margin; got != want {
				t.Errorf("tape height = %v, want %v", got, want)
			}
		})
	}
}

func TestPrintEmpty(t *testing.T) {
	var out bytes.Buffer
	h := newTestServer(&out).handler()

	rec := postForm(h, "/print", url.Values{"text": {"   "}, "type": {"text"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %v", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "Error") {
		t.Errorf("Location = %q, want an error message", loc)
	}
	if out.Len() != 0 {
		t.Error("empty content reached the printer")
	}
}

func TestPrintBadRequest(t *testing.T) {
	h := newTestServer(&bytes.Buffer{}).handler()

	rec := postForm(h, "/print", url.Values{"text": {"x"}, "type": {"poster"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status for unknown type = %v", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/print", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status for GET = %v", rec.Code)
	}
}

func TestPreview(t *testing.T) {
	var out bytes.Buffer
	h := newTestServer(&out).handler()

	rec := postForm(h, "/print?preview=1", url.Values{"text": {"ABC"}, "type": {"barcode"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %v: %v", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := img.Bounds().Dy(), 2*(canvas.MaxHeight+2*preview.Margin); got != want {
		t.Errorf("preview height = %v, want %v", got, want)
	}
	if out.Len() != 0 {
		t.Error("preview reached the printer")
	}

	rec = postForm(h, "/print?preview=1", url.Values{"text": {"abc"}, "type": {"barcode"}})
	if rec.Code != http.StatusOK {
		t.Errorf("code128 lowercase preview status = %v", rec.Code)
	}
}

func TestConcurrentPrintAndPreview(t *testing.T) {
	var out bytes.Buffer
	h := newTestServer(&out).handler()

	targets := []string{"/print", "/print?preview=1"}
	kinds := []string{"text", "barcode"}
	codes := make([]int, 8)

	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			form := url.Values{"text": {"Hello 42"}, "type": {kinds[i/2%2]}}
			codes[i] = postForm(h, targets[i%2], form).Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		want := http.StatusSeeOther
		if i%2 == 1 {
			want = http.StatusOK
		}
		if code != want {
			t.Errorf("request %d (%v): status = %v, want %v", i, targets[i%2], code, want)
		}
	}
}
