// Package stamper renders visual approval stamps onto stored PDF documents.
// Stamping is a best-effort side effect of an approval transition: callers
// must never fail the transition when rendering fails.
package stamper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/inklane/countersign/pkg/storage"
)

// Stamp describes a text mark placed at a page coordinate.
// X and Y are offsets in points from the bottom-left page corner.
type Stamp struct {
	Label string
	Page  int
	X     float64
	Y     float64
}

// System applies visual stamps to stored documents.
type System interface {
	// Apply renders the stamp onto the PDF blob at the given storage key
	// and writes the stamped document back to the same key.
	Apply(ctx context.Context, key string, stamp Stamp) error
}

type pdf struct {
	store  storage.System
	logger *slog.Logger
}

// New creates a stamper backed by the given blob storage.
func New(store storage.System, logger *slog.Logger) System {
	return &pdf{
		store:  store,
		logger: logger.With("system", "stamper"),
	}
}

func (p *pdf) Apply(ctx context.Context, key string, stamp Stamp) error {
	if stamp.Label == "" {
		return fmt.Errorf("stamp label must not be empty")
	}
	if stamp.Page < 1 {
		return fmt.Errorf("stamp page must be positive: %d", stamp.Page)
	}

	result, err := p.store.Download(ctx, key)
	if err != nil {
		return fmt.Errorf("load document %s: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return fmt.Errorf("read document %s: %w", key, err)
	}

	var stamped bytes.Buffer
	pages := []string{strconv.Itoa(stamp.Page)}

	wm, err := api.TextWatermark(stamp.Label, describe(stamp), true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("configure stamp for %s: %w", key, err)
	}

	if err := api.AddWatermarks(bytes.NewReader(data), &stamped, pages, wm, nil); err != nil {
		return fmt.Errorf("render stamp on %s: %w", key, err)
	}

	if err := p.store.Upload(ctx, key, &stamped, "application/pdf"); err != nil {
		return fmt.Errorf("store stamped document %s: %w", key, err)
	}

	p.logger.Info("stamp applied",
		"key", key,
		"label", stamp.Label,
		"page", stamp.Page,
	)
	return nil
}

func describe(s Stamp) string {
	return fmt.Sprintf(
		"points:18, pos:bl, off:%d %d, scale:1 abs, rot:0, fillc:#B22222",
		int(s.X), int(s.Y),
	)
}
