package catalog

import (
	"strconv"
	"strings"

	"github.com/poiesic/shopit/core"
	"github.com/poiesic/shopit/price"
)

// Field names tried in order when reading a raw record.
var (
	titleFields    = []string{"title", "name"}
	linkFields     = []string{"link", "url", "product_link"}
	imageFields    = []string{"image", "thumbnail", "image_url"}
	merchantFields = []string{"merchant", "source", "seller", "store"}
	idFields       = []string{"id", "product_id"}
)

// internalFields are provider bookkeeping that never reaches a Product.
var internalFields = []string{"deals_category", "_score", "_internal"}

// records returns the first present array among fields, keeping only object entries.
func records(resp map[string]any, fields ...string) []map[string]any {
	for _, field := range fields {
		raw, ok := resp[field].([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(raw))
		for _, entry := range raw {
			if rec, ok := entry.(map[string]any); ok {
				out = append(out, rec)
			}
		}
		return out
	}
	return nil
}

// strip removes provider-internal keys from each record.
func strip(recs []map[string]any) {
	for _, rec := range recs {
		for _, field := range internalFields {
			delete(rec, field)
		}
	}
}

// normalize converts raw records into Products. Position is the record's
// index in recs, so identities are unique per descriptor and provenance.
func normalize(descriptor string, provenance core.Provenance, recs []map[string]any) []core.Product {
	products := make([]core.Product, 0, len(recs))
	for i, rec := range recs {
		products = append(products, core.Product{
			ID:         core.ProductID(descriptor, provenance, i),
			SourceID:   str(rec, idFields...),
			Title:      str(rec, titleFields...),
			Price:      price.Extract(rec),
			ImageRef:   str(rec, imageFields...),
			Link:       str(rec, linkFields...),
			Merchant:   str(rec, merchantFields...),
			Provenance: provenance,
		})
	}
	return products
}

// str returns the first non-empty string among fields. Objects with a
// "name" field (e.g. {"source": {"name": "Shop"}}) yield that name.
func str(rec map[string]any, fields ...string) string {
	for _, field := range fields {
		switch v := rec[field].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case map[string]any:
			if name, ok := v["name"].(string); ok && strings.TrimSpace(name) != "" {
				return strings.TrimSpace(name)
			}
		case float64:
			if field == "id" || field == "product_id" {
				return strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
	}
	return ""
}
