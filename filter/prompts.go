package filter

import (
	"fmt"
	"strings"

	"github.com/poiesic/shopit/core"
)

const relevancePromptTemplate = `You are checking product photos against a shopping request.

Request: %s

You are shown %d product images, numbered from 0 in the order given:
%s
Decide for each image whether the product shown is the kind of item requested.

Rules:
- Accept near-synonyms and close variants (e.g. "couch" for "sofa", "loveseat" for a small sofa).
- Accept material and finish variants when the item type matches (linen instead of cotton, oak instead of walnut).
- Accept reasonable color shade differences.
- Reject a different item type (a chair when a sofa was requested) or a different category (a rug when a lamp was requested).
- Reject images that show no product, only a logo, or several unrelated items.

Output ONLY valid JSON with no preamble or explanation, in exactly this form:
{"passing_indexes": [0, 2]}

Use the image numbers above. If no image passes, return {"passing_indexes": []}.`

const brandPromptTemplate = `You are filtering a product list down to one brand.

Brand: %s
Category: %s

Products, numbered from 0:
%s
Rules:
- Keep a product only if it is manufactured by %s. Being compatible with, designed for, or mentioning the brand is not enough.
- Exclude accessories, cables, cases, covers, mounts and replacement parts unless the category asks for them.
- Exclude products outside the category.
- A merchant that is the brand's own store does not by itself make a product qualify; judge the product.

Output ONLY valid JSON with no preamble or explanation, in exactly this form:
{"passing_indexes": [0, 2]}

If no product qualifies, return {"passing_indexes": []}.`

// relevancePrompt builds the instruction for one batch; titles are listed in image order.
func relevancePrompt(d core.ItemDescriptor, titles []string) string {
	var list strings.Builder
	for i, title := range titles {
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&list, "%d. %s\n", i, title)
	}
	return fmt.Sprintf(relevancePromptTemplate, d.Criteria(), len(titles), list.String())
}

// brandPrompt builds the text-only brand instruction.
func brandPrompt(brand, category string, products []core.Product) string {
	var list strings.Builder
	for i, p := range products {
		line := p.Title
		if p.Merchant != "" {
			line += " (sold by " + p.Merchant + ")"
		}
		fmt.Fprintf(&list, "%d. %s\n", i, line)
	}
	if category == "" {
		category = "any"
	}
	return fmt.Sprintf(brandPromptTemplate, brand, category, list.String(), brand)
}
