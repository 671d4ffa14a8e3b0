// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package fallback synthesizes placeholder products for a descriptor whose
// every provider call failed, so a search never renders an empty category.
// Output is a pure function of the query and the requested count.
package fallback

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/shopit/core"
)

// Merchant is the label attached to every placeholder product.
const Merchant = "Marketplace"

// DefaultCount is the number of placeholders generated per descriptor.
const DefaultCount = 6

// Category is the coarse kind of item a query asks for.
type Category string

const (
	CategoryFurniture Category = "furniture"
	CategoryLighting  Category = "lighting"
	CategoryDecor     Category = "decor"
	CategoryKitchen   Category = "kitchen"
)

// priceRange is an inclusive range in minor units.
type priceRange struct {
	min, max int64
}

var categoryKeywords = []struct {
	category Category
	words    []string
}{
	{CategoryLighting, []string{"lamp", "light", "chandelier", "sconce", "pendant", "bulb", "lantern"}},
	{CategoryKitchen, []string{"kitchen", "stool", "faucet", "cookware", "pot", "pan", "utensil", "backsplash", "cabinet"}},
	{CategoryDecor, []string{"rug", "vase", "art", "print", "mirror", "pillow", "cushion", "throw", "curtain", "plant", "frame", "clock"}},
	{CategoryFurniture, []string{"sofa", "couch", "sectional", "chair", "table", "desk", "bed", "dresser", "shelf", "bookcase", "ottoman", "bench"}},
}

var categoryPrices = map[Category]priceRange{
	CategoryFurniture: {min: 19900, max: 249900},
	CategoryLighting:  {min: 3900, max: 49900},
	CategoryDecor:     {min: 1500, max: 29900},
	CategoryKitchen:   {min: 2500, max: 59900},
}

var colorWords = []string{
	"white", "black", "gray", "grey", "beige", "cream", "brown", "tan", "navy", "blue",
	"green", "sage", "olive", "red", "pink", "yellow", "orange", "gold", "brass", "silver",
}

var materialWords = []string{
	"wood", "oak", "walnut", "teak", "metal", "steel", "iron", "glass", "marble", "stone",
	"ceramic", "linen", "cotton", "wool", "velvet", "leather", "fabric", "rattan", "wicker", "concrete",
}

const (
	defaultColor    = "neutral"
	defaultMaterial = "mixed"
)

var styles = []string{"Modern", "Classic", "Minimalist", "Contemporary", "Rustic", "Scandinavian"}

// InferCategory picks a category by keyword, defaulting to furniture.
func InferCategory(query string) Category {
	words := tokenize(query)
	for _, group := range categoryKeywords {
		for _, w := range words {
			for _, kw := range group.words {
				if w == kw || w == kw+"s" {
					return group.category
				}
			}
		}
	}
	return CategoryFurniture
}

// Generate returns count placeholder products for the query.
// The same query and count always produce the same products.
func Generate(query string, count int) []core.Product {
	if count <= 0 {
		return []core.Product{}
	}

	category := InferCategory(query)
	prices := categoryPrices[category]
	words := tokenize(query)
	color := firstMatch(words, colorWords, defaultColor)
	material := firstMatch(words, materialWords, defaultMaterial)
	noun := itemNoun(words, category)

	seed := seedFor(query)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	products := make([]core.Product, count)
	for i := range products {
		style := styles[rng.IntN(len(styles))]
		// Round to whole major units ending in 99
		minor := prices.min + rng.Int64N(prices.max-prices.min+1)
		minor = (minor/100)*100 + 99

		title := fmt.Sprintf("%s %s %s %s", style, titleCase(color), titleCase(material), titleCase(noun))
		products[i] = core.Product{
			ID:         core.IDFromContent(fmt.Sprintf("fallback|%s|%d", query, i)),
			Title:      title,
			Price:      core.PriceOf(minor),
			ImageRef:   placeholderImage(string(category), i),
			Link:       "https://www.google.com/search?tbm=shop&q=" + url.QueryEscape(query),
			Merchant:   Merchant,
			Provenance: core.ProvenanceCatalog,
			Synthetic:  true,
		}
	}
	return products
}

func seedFor(query string) uint64 {
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(strings.ToLower(strings.TrimSpace(query))))
	return binary.LittleEndian.Uint64(h.Sum(nil))
}

func placeholderImage(category string, i int) string {
	return fmt.Sprintf("https://placehold.co/400x400?text=%s+%d", url.QueryEscape(category), i+1)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
}

func firstMatch(words, vocabulary []string, fallback string) string {
	for _, w := range words {
		for _, v := range vocabulary {
			if w == v {
				return v
			}
		}
	}
	return fallback
}

// itemNoun picks the last category keyword in the query, or the category itself.
func itemNoun(words []string, category Category) string {
	for i := len(words) - 1; i >= 0; i-- {
		for _, group := range categoryKeywords {
			for _, kw := range group.words {
				if words[i] == kw {
					return kw
				}
			}
		}
	}
	return string(category) + " piece"
}

func titleCase(s string) string {
	parts := strings.Fields(s)
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
