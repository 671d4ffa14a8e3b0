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


// Package price canonicalizes heterogeneous provider price encodings into
// integer minor currency units.
//
// Providers encode prices as bare numbers, display strings ("$1,299.00"),
// nested objects ({"amount": 12000, "currency": "USD"}) or arrays of any of
// these. FromValue turns each shape into a Raw tagged union and Normalize is
// the single function that reduces a set of Raw values to a core.Price.
//
// Every extracted number is assumed to already be in minor units; no scaling
// is applied. Values parsed from display strings are therefore mixed with
// values that providers already report in minor units, and the minimum is
// taken across both.
package price

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/poiesic/shopit/core"
)

// Kind tags the shape a Raw value came from.
type Kind int

const (
	// KindNone is a value that carries no price.
	KindNone Kind = iota
	// KindNumber is a bare JSON number.
	KindNumber
	// KindText is a string, possibly with currency symbols and separators.
	KindText
	// KindAmount is an object carrying an amount and optionally a currency.
	KindAmount
	// KindList is an array of further price values.
	KindList
)

// Raw is one price-bearing value as a provider sent it.
type Raw struct {
	Kind     Kind
	Number   float64 // KindNumber
	Text     string  // KindText
	Amount   *Raw    // KindAmount: the amount field, itself any shape
	Currency string  // KindAmount
	Items    []Raw   // KindList
}

// Fields lists the record keys that may carry a price, in lookup order.
var Fields = []string{
	"price",
	"extracted_price",
	"sale_price",
	"priceInfo",
	"price_info",
	"prices",
}

// amountKeys are the keys inspected inside a price object.
var amountKeys = []string{"amount", "value", "extracted_value"}

// FromValue classifies a decoded JSON value.
func FromValue(v any) Raw {
	switch val := v.(type) {
	case float64:
		return Raw{Kind: KindNumber, Number: val}
	case float32:
		return Raw{Kind: KindNumber, Number: float64(val)}
	case int:
		return Raw{Kind: KindNumber, Number: float64(val)}
	case int64:
		return Raw{Kind: KindNumber, Number: float64(val)}
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return Raw{Kind: KindText, Text: val.String()}
		}
		return Raw{Kind: KindNumber, Number: f}
	case string:
		return Raw{Kind: KindText, Text: val}
	case map[string]any:
		for _, key := range amountKeys {
			if amount, ok := val[key]; ok {
				inner := FromValue(amount)
				currency, _ := val["currency"].(string)
				return Raw{Kind: KindAmount, Amount: &inner, Currency: currency}
			}
		}
		return Raw{Kind: KindNone}
	case []any:
		items := make([]Raw, 0, len(val))
		for _, item := range val {
			items = append(items, FromValue(item))
		}
		return Raw{Kind: KindList, Items: items}
	default:
		return Raw{Kind: KindNone}
	}
}

// Extract collects every known price field of a provider record and normalizes them.
func Extract(record map[string]any) core.Price {
	raws := make([]Raw, 0, len(Fields))
	for _, field := range Fields {
		if v, ok := record[field]; ok && v != nil {
			raws = append(raws, FromValue(v))
		}
	}
	return Normalize(raws...)
}

// Normalize returns the minimum numeric candidate across all values,
// or core.NoPrice when none could be extracted.
func Normalize(raws ...Raw) core.Price {
	var candidates []float64
	for _, r := range raws {
		candidates = r.collect(candidates)
	}
	if len(candidates) == 0 {
		return core.NoPrice
	}

	lowest := candidates[0]
	for _, c := range candidates[1:] {
		if c < lowest {
			lowest = c
		}
	}
	return core.PriceOf(int64(math.Round(lowest)))
}

// collect appends every numeric value reachable from r.
func (r Raw) collect(into []float64) []float64 {
	switch r.Kind {
	case KindNumber:
		if representable(r.Number) {
			into = append(into, r.Number)
		}
	case KindText:
		if f, ok := parseText(r.Text); ok && representable(f) {
			into = append(into, f)
		}
	case KindAmount:
		if r.Amount != nil {
			into = r.Amount.collect(into)
		}
	case KindList:
		for _, item := range r.Items {
			into = item.collect(into)
		}
	}
	return into
}

// representable reports whether f rounds to a non-negative int64.
func representable(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	rounded := math.Round(f)
	return rounded >= 0 && rounded < math.MaxInt64
}

// parseText strips everything except digits and '.' and parses the rest.
func parseText(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
