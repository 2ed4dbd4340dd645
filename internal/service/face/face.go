// Package face compares a fresh attendance photo with the user's reference
// photo using image embeddings.
package face

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Threshold is the minimum cosine similarity for a verified match.
const Threshold = 0.75

// Fetcher downloads an image by reference.
type Fetcher interface {
	FetchBytes(ctx context.Context, ref string) ([]byte, error)
}

// Embedder turns image bytes into a feature vector.
type Embedder interface {
	Embed(ctx context.Context, image []byte) ([]float32, error)
}

type Result struct {
	Verified   bool    `json:"verified"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

type Matcher struct {
	fetcher  Fetcher
	embedder Embedder
	timeout  time.Duration
}

func NewMatcher(fetcher Fetcher, embedder Embedder, timeout time.Duration) *Matcher {
	return &Matcher{fetcher: fetcher, embedder: embedder, timeout: timeout}
}

// Compare never fails. A missing reference yields an unverified zero result,
// any fetch or model error yields an unverified zero result carrying the
// error message.
func (m *Matcher) Compare(ctx context.Context, referenceRef, candidateRef string) Result {
	if referenceRef == "" || candidateRef == "" {
		return Result{}
	}

	confidence, err := m.similarity(ctx, referenceRef, candidateRef)
	if err != nil {
		return Result{Error: err.Error()}
	}

	return Result{
		Verified:   confidence >= Threshold,
		Confidence: confidence,
	}
}

func (m *Matcher) similarity(ctx context.Context, referenceRef, candidateRef string) (float64, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	refs := [2]string{referenceRef, candidateRef}
	var vectors [2][]float32

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			raw, err := m.fetcher.FetchBytes(gctx, ref)
			if err != nil {
				return errors.Wrapf(err, "fetching %s", ref)
			}

			img, err := Normalize(raw)
			if err != nil {
				return errors.Wrapf(err, "decoding %s", ref)
			}

			vectors[i], err = m.embedder.Embed(gctx, img)
			if err != nil {
				return errors.Wrapf(err, "embedding %s", ref)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	return Cosine(vectors[0], vectors[1]), nil
}

// Cosine returns dot(a,b)/(|a||b|) clamped to [0,1]. Zero-norm or mismatched
// vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	switch {
	case math.IsNaN(sim), sim < 0:
		return 0
	case sim > 1:
		return 1
	}
	return sim
}
