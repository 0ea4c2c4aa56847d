package web_test

import (
	"embed"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/churnstudio/pkg/web"
)

//go:embed testdata
var testFS embed.FS

var (
	pageView   = web.ViewDef{Route: "/{$}", Template: "page.html", Title: "Page"}
	brokenView = web.ViewDef{Template: "broken.html", Title: "Broken"}
)

func newTemplateSet(t *testing.T) *web.TemplateSet {
	t.Helper()
	ts, err := web.NewTemplateSet(
		testFS, testFS,
		"testdata/layouts/*.html",
		"testdata/views",
		"/app",
		[]web.ViewDef{pageView, brokenView},
	)
	if err != nil {
		t.Fatalf("NewTemplateSet failed: %v", err)
	}
	return ts
}

func TestRender(t *testing.T) {
	ts := newTemplateSet(t)

	rec := httptest.NewRecorder()
	err := ts.Render(rec, "base.html", "page.html", web.ViewData{Title: "Dashboard", Data: "hello"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `<a href="/app/">hello</a>`) {
		t.Errorf("unexpected body %q", body)
	}
	if strings.Contains(body, "refresh") {
		t.Error("zero Refresh should not emit a refresh tag")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("content-type: got %q", ct)
	}
}

func TestRenderRefresh(t *testing.T) {
	ts := newTemplateSet(t)

	rec := httptest.NewRecorder()
	ts.Render(rec, "base.html", "page.html", web.ViewData{Title: "Busy", Refresh: 2})

	if !strings.Contains(rec.Body.String(), `content="2"`) {
		t.Errorf("expected refresh tag, got %q", rec.Body.String())
	}
}

func TestRenderFailureWritesNothing(t *testing.T) {
	ts := newTemplateSet(t)

	rec := httptest.NewRecorder()
	err := ts.Render(rec, "base.html", "broken.html", web.ViewData{Data: "not a struct"})
	if err == nil {
		t.Fatal("expected template error")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("failed render should not write, got %q", rec.Body.String())
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	ts := newTemplateSet(t)

	if err := ts.Render(httptest.NewRecorder(), "base.html", "missing.html", web.ViewData{}); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestErrorHandler(t *testing.T) {
	ts := newTemplateSet(t)

	rec := httptest.NewRecorder()
	ts.ErrorHandler("base.html", pageView, http.StatusNotFound)(rec, httptest.NewRequest("GET", "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<title>Page</title>") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestDistServer(t *testing.T) {
	handler := web.DistServer(testFS, "testdata/static", "/static/")

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/static/site.css", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "margin: 0") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}
