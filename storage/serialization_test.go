package storage

import (
	"testing"

	"github.com/poiesic/shopit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalImage(t *testing.T) {
	img := &core.EncodedImage{MimeType: "image/webp", Data: []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0xff}}

	decoded, err := UnmarshalImage(MarshalImage(img))
	require.NoError(t, err)
	assert.Equal(t, img, decoded)
}

func TestMarshalUnmarshalView(t *testing.T) {
	view := core.NewSearchView([]core.CategoryResult{
		{
			Name:        "gray sofa",
			Query:       "gray fabric sectional sofa",
			Description: "a deep gray sectional",
			Products: []core.Product{
				{
					ID:         core.ProductID("gray sofa", core.ProvenanceEditorial, 0),
					Title:      "Harmony Sectional",
					Price:      core.PriceOf(129900),
					ImageRef:   "https://img.example/1.jpg",
					Link:       "https://shop.example/1",
					Merchant:   "Shop",
					Provenance: core.ProvenanceEditorial,
				},
				{
					ID:         core.ProductID("gray sofa", core.ProvenanceCatalog, 0),
					SourceID:   "sku-2",
					Title:      "No Price Sofa",
					Provenance: core.ProvenanceCatalog,
				},
			},
		},
		{
			Name:     "lamp",
			Degraded: true,
			Products: []core.Product{
				{Title: "Modern Lamp", Price: core.PriceOf(0), Synthetic: true, Provenance: core.ProvenanceCatalog},
			},
		},
	})

	decoded, err := UnmarshalView(MarshalView(view))
	require.NoError(t, err)
	assert.Equal(t, view, decoded)
	assert.False(t, decoded.Categories[0].Products[1].Price.IsSet(), "absent price survives")
	assert.True(t, decoded.Categories[1].Products[0].Price.IsSet(), "zero price survives")
}

func TestUnmarshalView_Truncated(t *testing.T) {
	data := MarshalView(core.NewSearchView([]core.CategoryResult{
		{Name: "sofa", Products: []core.Product{{Title: "a"}, {Title: "b"}}},
	}))

	_, err := UnmarshalView(data[:len(data)-3])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestUnmarshalImage_Empty(t *testing.T) {
	_, err := UnmarshalImage(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
