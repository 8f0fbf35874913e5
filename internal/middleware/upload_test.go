package middleware

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

// multipartBody builds a form with image parts under the given field.  Each
// part carries an explicit Content-Type header like a browser upload does.
func multipartBody(t *testing.T, field string, files ...UploadedFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+f.Name+`"`)
		hdr.Set("Content-Type", f.ContentType)
		part, err := w.CreatePart(hdr)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func uploadEcho(cfg UploadConfig, staged *[]UploadedFile) *echo.Echo {
	e := echo.New()
	e.POST("/upload", func(c echo.Context) error {
		*staged = UploadedFiles(c)
		return c.NoContent(http.StatusNoContent)
	}, StageUploads(cfg))
	return e
}

func TestStageUploadsSingleFile(t *testing.T) {
	var staged []UploadedFile
	e := uploadEcho(UploadConfig{Field: "logo", MaxSize: 1024}, &staged)

	body, ctype := multipartBody(t, "logo", UploadedFile{Name: "logo.png", ContentType: "image/png", Data: []byte("pngdata")})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(staged) != 1 {
		t.Fatalf("staged %d files, want 1", len(staged))
	}
	if staged[0].Name != "logo.png" || staged[0].ContentType != "image/png" || string(staged[0].Data) != "pngdata" {
		t.Errorf("staged file = %+v", staged[0])
	}
}

func TestStageUploadsPassthroughWithoutField(t *testing.T) {
	var staged []UploadedFile
	e := uploadEcho(UploadConfig{Field: "logo", MaxSize: 1024}, &staged)

	// JSON request: not multipart at all.
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"name":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("json passthrough status = %d", rec.Code)
	}
	if staged != nil {
		t.Errorf("staged = %v, want none", staged)
	}

	// Multipart form without the expected field.
	body, ctype := multipartBody(t, "other", UploadedFile{Name: "a.png", ContentType: "image/png", Data: []byte("x")})
	req = httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("missing field passthrough status = %d", rec.Code)
	}
	if staged != nil {
		t.Errorf("staged = %v, want none", staged)
	}
}

func TestStageUploadsRejectsBadType(t *testing.T) {
	var staged []UploadedFile
	e := uploadEcho(UploadConfig{Field: "logo", MaxSize: 1024}, &staged)

	cases := []UploadedFile{
		{Name: "doc.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
		{Name: "shady.png.exe", ContentType: "image/png", Data: []byte("MZ")},
		{Name: "pic.png", ContentType: "text/html", Data: []byte("<html>")},
	}
	for _, f := range cases {
		body, ctype := multipartBody(t, "logo", f)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set(echo.HeaderContentType, ctype)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", f.Name, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Only image files allowed (jpeg, jpg, png, webp)") {
			t.Errorf("%s: body = %s", f.Name, rec.Body.String())
		}
	}
}

func TestStageUploadsRejectsOversize(t *testing.T) {
	var staged []UploadedFile
	e := uploadEcho(UploadConfig{Field: "logo", MaxSize: 16}, &staged)

	body, ctype := multipartBody(t, "logo", UploadedFile{Name: "big.png", ContentType: "image/png", Data: bytes.Repeat([]byte("a"), 64)})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "File too large. Max 5MB") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestStageUploadsEnforcesMaxCount(t *testing.T) {
	var staged []UploadedFile
	e := uploadEcho(UploadConfig{Field: "images", Multiple: true, MaxSize: 1024, MaxCount: 2}, &staged)

	files := []UploadedFile{
		{Name: "a.png", ContentType: "image/png", Data: []byte("a")},
		{Name: "b.png", ContentType: "image/png", Data: []byte("b")},
		{Name: "c.png", ContentType: "image/png", Data: []byte("c")},
	}
	body, ctype := multipartBody(t, "images", files...)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "too many files") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestStageUploadsSingleTakesFirst(t *testing.T) {
	var staged []UploadedFile
	e := uploadEcho(UploadConfig{Field: "logo", MaxSize: 1024}, &staged)

	files := []UploadedFile{
		{Name: "first.png", ContentType: "image/png", Data: []byte("1")},
		{Name: "second.png", ContentType: "image/png", Data: []byte("2")},
	}
	body, ctype := multipartBody(t, "logo", files...)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(staged) != 1 || staged[0].Name != "first.png" {
		t.Errorf("staged = %+v, want only first.png", staged)
	}
}
