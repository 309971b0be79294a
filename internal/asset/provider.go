package asset

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
)

var ErrUnsupportedSource = errors.New("unsupported image source")

// Provider resolves image element sources into decoded bitmaps. A source
// is a data: URL, an absolute http(s) URL, or a path. Paths are fetched
// relative to BaseURL when it is set and read from Dir otherwise.
type Provider struct {
	Client  *http.Client
	BaseURL string
	Dir     string
}

func NewProvider(baseURL, dir string) *Provider {
	return &Provider{Client: http.DefaultClient, BaseURL: baseURL, Dir: dir}
}

// Load fetches and decodes src.
func (p *Provider) Load(ctx context.Context, src string) (image.Image, error) {
	data, err := p.read(ctx, src)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", shorten(src), err)
	}
	return img, nil
}

func (p *Provider) read(ctx context.Context, src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		return decodeDataURL(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return p.fetch(ctx, src)
	case src == "":
		return nil, fmt.Errorf("empty source: %w", ErrUnsupportedSource)
	}

	if strings.Contains(src, "://") {
		return nil, fmt.Errorf("%s: %w", shorten(src), ErrUnsupportedSource)
	}
	if p.BaseURL != "" {
		base, err := url.Parse(p.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		ref, err := url.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse source: %w", err)
		}
		return p.fetch(ctx, base.ResolveReference(ref).String())
	}
	if p.Dir != "" {
		return p.readFile(src)
	}
	return nil, fmt.Errorf("%s: %w", shorten(src), ErrUnsupportedSource)
}

func (p *Provider) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", u, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	if len(data) > maxUploadSize {
		return nil, fmt.Errorf("fetch %s: image larger than %d bytes", u, maxUploadSize)
	}
	return data, nil
}

// readFile reads a path below Dir. The /assets/ prefix used by the relay
// is accepted so stored element sources work offline too.
func (p *Provider) readFile(src string) ([]byte, error) {
	name := path.Clean("/" + strings.TrimPrefix(src, "/assets/"))
	data, err := os.ReadFile(filepath.Join(p.Dir, filepath.FromSlash(name)))
	if err != nil {
		return nil, fmt.Errorf("read asset: %w", err)
	}
	return data, nil
}

func decodeDataURL(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("data url without payload: %w", ErrUnsupportedSource)
	}
	if !strings.HasSuffix(meta, ";base64") {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("unescape data url: %w", err)
		}
		return []byte(s), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return data, nil
}

func shorten(src string) string {
	if len(src) > 64 {
		return src[:64] + "..."
	}
	return src
}
