package face

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func solidPNG(t *testing.T, c color.Color, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type mockFetcher struct {
	FetchFunc func(ctx context.Context, ref string) ([]byte, error)
}

func (m *mockFetcher) FetchBytes(ctx context.Context, ref string) ([]byte, error) {
	return m.FetchFunc(ctx, ref)
}

// colorEmbedder embeds an image as the RGB of its top-left pixel.
type colorEmbedder struct{}

func (colorEmbedder) Embed(_ context.Context, raw []byte) ([]float32, error) {
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	return []float32{float32(r), float32(g), float32(b)}, nil
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero norm", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 1}, 0},
		{"empty", nil, nil, 0},
		{"opposite clamps to zero", []float32{1, 0}, []float32{-1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	red := solidPNG(t, color.RGBA{R: 255, A: 255}, 40, 30)
	blue := solidPNG(t, color.RGBA{B: 255, A: 255}, 30, 40)

	images := map[string][]byte{
		"https://cdn/ref.png":   red,
		"https://cdn/same.png":  red,
		"https://cdn/other.png": blue,
	}
	fetcher := &mockFetcher{FetchFunc: func(_ context.Context, ref string) ([]byte, error) {
		b, ok := images[ref]
		if !ok {
			return nil, errors.New("404")
		}
		return b, nil
	}}

	m := NewMatcher(fetcher, colorEmbedder{}, time.Second)

	got := m.Compare(context.Background(), "https://cdn/ref.png", "https://cdn/same.png")
	if !got.Verified || math.Abs(got.Confidence-1) > 1e-9 || got.Error != "" {
		t.Errorf("same photo: got %+v, want verified with confidence 1", got)
	}

	got = m.Compare(context.Background(), "https://cdn/ref.png", "https://cdn/other.png")
	if got.Verified || got.Confidence != 0 {
		t.Errorf("different photo: got %+v, want unverified 0", got)
	}
}

func TestCompare_SkipsWithoutReference(t *testing.T) {
	fetcher := &mockFetcher{FetchFunc: func(context.Context, string) ([]byte, error) {
		t.Fatal("fetch must not be called")
		return nil, nil
	}}
	m := NewMatcher(fetcher, colorEmbedder{}, time.Second)

	for _, refs := range [][2]string{{"", "https://cdn/a.png"}, {"https://cdn/a.png", ""}} {
		if got := m.Compare(context.Background(), refs[0], refs[1]); got != (Result{}) {
			t.Errorf("Compare(%q, %q) = %+v, want zero result", refs[0], refs[1], got)
		}
	}
}

func TestCompare_FailureDegrades(t *testing.T) {
	fetcher := &mockFetcher{FetchFunc: func(context.Context, string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}}
	m := NewMatcher(fetcher, colorEmbedder{}, time.Second)

	got := m.Compare(context.Background(), "https://cdn/a.png", "https://cdn/b.png")
	if got.Verified || got.Confidence != 0 {
		t.Errorf("got %+v, want unverified 0", got)
	}
	if !strings.Contains(got.Error, "connection refused") {
		t.Errorf("error = %q, want fetch failure", got.Error)
	}
}

func TestCompare_UndecodableImage(t *testing.T) {
	fetcher := &mockFetcher{FetchFunc: func(context.Context, string) ([]byte, error) {
		return []byte("not an image"), nil
	}}
	m := NewMatcher(fetcher, colorEmbedder{}, time.Second)

	if got := m.Compare(context.Background(), "a", "b"); got.Error == "" || got.Verified {
		t.Errorf("got %+v, want decode error", got)
	}
}

func TestNormalize(t *testing.T) {
	out, err := Normalize(solidPNG(t, color.White, 640, 480))
	if err != nil {
		t.Fatal(err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != InputSize || b.Dy() != InputSize {
		t.Errorf("bounds = %v, want %dx%d", b, InputSize, InputSize)
	}
}

func TestEmbedClient(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Images) != 1 {
			t.Errorf("unexpected request %+v", req)
		}
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{0.1, 0.2}}})
	}))
	defer srv.Close()

	c := NewEmbedClient(WithEmbedURL(srv.URL), WithEmbedModel("test-model"))
	vec, err := c.Embed(context.Background(), []byte("img"))
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 2 || calls != 2 {
		t.Errorf("vec = %v after %d calls, want 2 values after 2 calls", vec, calls)
	}
}

func TestEmbedClient_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad image", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewEmbedClient(WithEmbedURL(srv.URL)).Embed(context.Background(), []byte("img"))
	if err == nil || calls != 1 {
		t.Errorf("err = %v after %d calls, want one failed call", err, calls)
	}
}

func TestHTTPFetcher_StatusErrorCarriesStack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(time.Second).FetchBytes(context.Background(), srv.URL+"/ref.jpg")
	if err == nil || err.Error() != "unexpected status 404" {
		t.Fatalf("err = %v, want unexpected status 404", err)
	}
	if !strings.Contains(fmt.Sprintf("%+v", err), "FetchBytes") {
		t.Errorf("error has no stack trace: %+v", err)
	}
}

func TestEmbedClient_ClientErrorCarriesStack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad image", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewEmbedClient(WithEmbedURL(srv.URL)).Embed(context.Background(), []byte("img"))
	if err == nil || !strings.HasPrefix(err.Error(), "embedding error (400)") {
		t.Fatalf("err = %v, want embedding error (400)", err)
	}
	if !strings.Contains(fmt.Sprintf("%+v", err), "Embed") {
		t.Errorf("error has no stack trace: %+v", err)
	}
}

type dirOpener string

func (d dirOpener) Open(publicPath string) (*os.File, error) {
	return os.Open(filepath.Join(string(d), filepath.Base(publicPath)))
}

func TestLocalFirst(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.png"), []byte("local"), 0o600); err != nil {
		t.Fatal(err)
	}

	var remote []string
	f := NewLocalFirst("/statics/", dirOpener(dir), &mockFetcher{
		FetchFunc: func(_ context.Context, ref string) ([]byte, error) {
			remote = append(remote, ref)
			return []byte("remote"), nil
		},
	})

	got, err := f.FetchBytes(context.Background(), "/statics/photos/a.png")
	if err != nil || string(got) != "local" {
		t.Errorf("local = %q, %v", got, err)
	}

	got, err = f.FetchBytes(context.Background(), "https://cdn.example.com/a.png")
	if err != nil || string(got) != "remote" {
		t.Errorf("remote = %q, %v", got, err)
	}
	if len(remote) != 1 {
		t.Errorf("remote calls = %v", remote)
	}

	if _, err := f.FetchBytes(context.Background(), "/statics/photos/missing.png"); err == nil {
		t.Error("expected missing local file to fail")
	}
}
