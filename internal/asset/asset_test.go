package asset

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestProviderLoad(t *testing.T) {
	data := pngBytes(t, 3, 2)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cat.png"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assets/cat.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)

	tests := []struct {
		name     string
		provider *Provider
		src      string
		wantErr  bool
	}{
		{"data url", NewProvider("", ""), dataURL, false},
		{"absolute url", NewProvider("", ""), srv.URL + "/assets/cat.png", false},
		{"relative to base", NewProvider(srv.URL, ""), "/assets/cat.png", false},
		{"not found", NewProvider(srv.URL, ""), "/assets/dog.png", true},
		{"asset dir", NewProvider("", dir), "/assets/cat.png", false},
		{"dir escape", NewProvider("", dir), "../../etc/passwd", true},
		{"no resolver for path", NewProvider("", ""), "cat.png", true},
		{"unknown scheme", NewProvider("", dir), "ftp://host/cat.png", true},
		{"not an image", NewProvider("", ""), "data:text/plain,hello", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := tt.provider.Load(context.Background(), tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load(%q) err = %v, wantErr %v", tt.src, err, tt.wantErr)
			}
			if err == nil && img.Bounds().Dx() != 3 {
				t.Errorf("bounds = %v", img.Bounds())
			}
		})
	}

	if _, err := NewProvider("", "").Load(context.Background(), "ftp://x"); !errors.Is(err, ErrUnsupportedSource) {
		t.Errorf("ftp err = %v, want ErrUnsupportedSource", err)
	}
}

func TestUploadAndServe(t *testing.T) {
	h := NewHandler(t.TempDir())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="cat.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(pngBytes(t, 5, 4))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/assets/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp UploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Width != 5 || resp.Height != 4 || !strings.HasPrefix(resp.URL, "/assets/asset_") {
		t.Fatalf("response = %+v", resp)
	}

	rec = httptest.NewRecorder()
	h.Serve().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("serve status = %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "immutable") {
		t.Errorf("Cache-Control = %q", cc)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	h := NewHandler(t.TempDir())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "notes.txt")
	part.Write([]byte("hello"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/assets/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
