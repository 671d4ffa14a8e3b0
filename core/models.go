package core

import (
	"encoding/base64"
	"encoding/binary"
	"strconv"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ProductID derives the identity of a product from its position in one
// descriptor's provider response. Identities are not stable across providers.
func ProductID(descriptor string, provenance Provenance, position int) ID {
	return IDFromContent(descriptor + "|" + provenance.String() + "|" + strconv.Itoa(position))
}

// Provenance identifies which discovery service produced a product.
type Provenance int

const (
	// ProvenanceCatalog marks results from the primary catalog service.
	ProvenanceCatalog Provenance = iota + 1
	// ProvenanceEditorial marks results from the editorial roundup service.
	ProvenanceEditorial
	// ProvenanceVisual marks results from the visual-search service.
	ProvenanceVisual
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceCatalog:
		return "catalog"
	case ProvenanceEditorial:
		return "editorial"
	case ProvenanceVisual:
		return "visual"
	default:
		return "unknown"
	}
}

// ItemDescriptor names one design element to find purchasable matches for.
// Descriptors are produced by the intent collaborator and are not modified
// during a search.
type ItemDescriptor struct {
	Name              string `yaml:"name"`
	Description       string `yaml:"description"`
	PrimaryQuery      string `yaml:"primary_query"`
	EditorialQuery    string `yaml:"editorial_query"`
	VisualQuery       string `yaml:"visual_query,omitempty"`
	ReferenceImageRef string `yaml:"reference_image,omitempty"`
}

// HasVisualSearch reports whether both a reference image and a visual phrase are present.
func (d ItemDescriptor) HasVisualSearch() bool {
	return d.VisualQuery != "" && d.ReferenceImageRef != ""
}

// Criteria returns the text used to judge candidate relevance.
func (d ItemDescriptor) Criteria() string {
	criteria := d.Name
	if d.Description != "" {
		criteria += ": " + d.Description
	}
	if d.PrimaryQuery != "" && d.PrimaryQuery != d.Name {
		criteria += " (searched as \"" + d.PrimaryQuery + "\")"
	}
	return criteria
}

// Price is a price in integer minor currency units (e.g. cents), or absent.
// The zero value is an absent price, which is distinct from a price of zero.
type Price struct {
	minor int64
	valid bool
}

// NoPrice is the absent price.
var NoPrice = Price{}

// PriceOf returns a present price of the given minor units.
func PriceOf(minor int64) Price {
	return Price{minor: minor, valid: true}
}

// Minor returns the price in minor units and whether it is present.
func (p Price) Minor() (int64, bool) {
	return p.minor, p.valid
}

// IsSet reports whether the price is present.
func (p Price) IsSet() bool {
	return p.valid
}

// Product is a normalized purchasable candidate.
// Empty string fields mean the provider did not supply the value.
type Product struct {
	ID         ID
	SourceID   string // Provider's own identifier, if any
	Title      string
	Price      Price
	ImageRef   string
	Link       string
	Merchant   string
	Provenance Provenance
	Synthetic  bool // Placeholder produced when every provider failed
}

// EncodedImage is an image materialized into an embeddable form.
type EncodedImage struct {
	MimeType string
	Data     []byte
}

// DataURL renders the image as a base64 data URL.
func (i EncodedImage) DataURL() string {
	return "data:" + i.MimeType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Session carries per-conversation state into the search entry points.
type Session struct {
	ID            string
	DisplayTarget string // Where results are rendered; may be cleared mid-search
}

// CategoryResult is the rendered outcome for one descriptor.
type CategoryResult struct {
	Name        string
	Query       string
	Description string
	Products    []Product
	Degraded    bool // Products are placeholders from the degradation generator
}

// SearchView is what the display collaborator receives for one search.
type SearchView struct {
	Categories    []CategoryResult
	TotalProducts int
}

// NewSearchView builds a view and counts its products.
func NewSearchView(categories []CategoryResult) *SearchView {
	total := 0
	for _, c := range categories {
		total += len(c.Products)
	}
	return &SearchView{Categories: categories, TotalProducts: total}
}
