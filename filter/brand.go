package filter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/shopit/ai"
	"github.com/poiesic/shopit/core"
)

// unclearBrands are placeholder values the intent layer emits when it could not resolve a brand.
var unclearBrands = map[string]bool{
	"":           true,
	"unknown":    true,
	"unresolved": true,
	"n/a":        true,
}

// CheckBrand returns core.ErrUnclearBrand if brand does not name a real brand.
func CheckBrand(brand string) error {
	if unclearBrands[strings.ToLower(strings.TrimSpace(brand))] {
		return core.ErrUnclearBrand
	}
	return nil
}

// Brand keeps products manufactured by a named brand.
type Brand struct {
	judge  ai.Judge
	logger *slog.Logger
}

// BrandOption configures a Brand filter.
type BrandOption func(*Brand)

// WithBrandLogger sets a custom logger.
func WithBrandLogger(logger *slog.Logger) BrandOption {
	return func(b *Brand) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBrand creates a brand filter around a text-only judge.
func NewBrand(judge ai.Judge, opts ...BrandOption) (*Brand, error) {
	if judge == nil {
		return nil, ErrJudgeRequired
	}
	b := &Brand{
		judge:  judge,
		logger: slog.Default().With("component", "brand"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Filter returns the products made by brand within category, in their original order.
// An unclear brand returns core.ErrUnclearBrand without calling the judge.
// Judge failures keep every product.
func (b *Brand) Filter(ctx context.Context, products []core.Product, brand, category string) ([]core.Product, error) {
	if err := CheckBrand(brand); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return []core.Product{}, nil
	}
	brand = strings.TrimSpace(brand)

	reply, err := b.judge.Judge(ctx, brandPrompt(brand, category, products), nil)
	if err != nil {
		b.logger.Warn("brand judge failed, keeping all products", "brand", brand, "err", err)
		return products, nil
	}
	verdict, err := ai.ParseVerdict(reply)
	if err != nil {
		b.logger.Warn("brand verdict unparsable, keeping all products", "brand", brand, "err", err)
		return products, nil
	}

	keep := make([]bool, len(products))
	for _, idx := range verdict.PassingIndexes {
		if idx >= 0 && idx < len(products) {
			keep[idx] = true
		}
	}
	kept := make([]core.Product, 0, len(products))
	for i, ok := range keep {
		if ok {
			kept = append(kept, products[i])
		}
	}
	return kept, nil
}
