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


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/shopit/core"
)

// Format versions prefix every stored value so layouts can evolve.
const (
	imageFormatVersion = 1
	viewFormatVersion  = 1
)

// serializer is the subset of a mus-go serializer used here.
type serializer[T any] interface {
	Marshal(v T, bs []byte) int
	Unmarshal(bs []byte) (T, int, error)
	Size(v T) int
}

// encoder appends mus-encoded fields to a buffer.
type encoder struct {
	buf []byte
}

func put[T any](e *encoder, s serializer[T], v T) {
	start := len(e.buf)
	e.buf = append(e.buf, make([]byte, s.Size(v))...)
	s.Marshal(v, e.buf[start:])
}

// decoder reads mus-encoded fields, remembering the first error.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func get[T any](d *decoder, s serializer[T]) T {
	var zero T
	if d.err != nil {
		return zero
	}
	v, n, err := s.Unmarshal(d.bs[d.n:])
	if err != nil {
		d.err = err
		return zero
	}
	d.n += n
	return v
}

func (d *decoder) finish() error {
	if d.err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, d.err)
	}
	return nil
}

// MarshalImage serializes an EncodedImage to bytes.
func MarshalImage(img *core.EncodedImage) []byte {
	e := &encoder{}
	put(e, varint.Int, imageFormatVersion)
	put(e, ord.String, img.MimeType)
	put(e, ord.String, string(img.Data))
	return e.buf
}

// UnmarshalImage deserializes an EncodedImage from bytes.
func UnmarshalImage(data []byte) (*core.EncodedImage, error) {
	d := &decoder{bs: data}
	if version := get(d, varint.Int); d.err == nil && version != imageFormatVersion {
		return nil, fmt.Errorf("%w: unknown image format %d", ErrSerializationFailed, version)
	}
	mime := get(d, ord.String)
	body := get(d, ord.String)
	if err := d.finish(); err != nil {
		return nil, err
	}
	return &core.EncodedImage{MimeType: mime, Data: []byte(body)}, nil
}

// MarshalView serializes a SearchView to bytes.
func MarshalView(view *core.SearchView) []byte {
	e := &encoder{}
	put(e, varint.Int, viewFormatVersion)
	put(e, varint.Int, view.TotalProducts)
	put(e, varint.Int, len(view.Categories))
	for _, c := range view.Categories {
		put(e, ord.String, c.Name)
		put(e, ord.String, c.Query)
		put(e, ord.String, c.Description)
		put(e, ord.Bool, c.Degraded)
		put(e, varint.Int, len(c.Products))
		for _, p := range c.Products {
			marshalProduct(e, p)
		}
	}
	return e.buf
}

// UnmarshalView deserializes a SearchView from bytes.
func UnmarshalView(data []byte) (*core.SearchView, error) {
	d := &decoder{bs: data}
	if version := get(d, varint.Int); d.err == nil && version != viewFormatVersion {
		return nil, fmt.Errorf("%w: unknown view format %d", ErrSerializationFailed, version)
	}

	view := &core.SearchView{}
	view.TotalProducts = get(d, varint.Int)
	count := get(d, varint.Int)
	if d.err == nil && (count < 0 || count > len(data)) {
		return nil, fmt.Errorf("%w: bad category count %d", ErrSerializationFailed, count)
	}
	for i := 0; i < count && d.err == nil; i++ {
		c := core.CategoryResult{
			Name:        get(d, ord.String),
			Query:       get(d, ord.String),
			Description: get(d, ord.String),
			Degraded:    get(d, ord.Bool),
		}
		products := get(d, varint.Int)
		if d.err == nil && (products < 0 || products > len(data)) {
			return nil, fmt.Errorf("%w: bad product count %d", ErrSerializationFailed, products)
		}
		c.Products = make([]core.Product, 0, max(products, 0))
		for j := 0; j < products && d.err == nil; j++ {
			c.Products = append(c.Products, unmarshalProduct(d))
		}
		view.Categories = append(view.Categories, c)
	}

	if err := d.finish(); err != nil {
		return nil, err
	}
	return view, nil
}

func marshalProduct(e *encoder, p core.Product) {
	minor, hasPrice := p.Price.Minor()
	put(e, varint.Uint64, uint64(p.ID))
	put(e, ord.String, p.SourceID)
	put(e, ord.String, p.Title)
	put(e, ord.Bool, hasPrice)
	put(e, varint.Int64, minor)
	put(e, ord.String, p.ImageRef)
	put(e, ord.String, p.Link)
	put(e, ord.String, p.Merchant)
	put(e, varint.Int, int(p.Provenance))
	put(e, ord.Bool, p.Synthetic)
}

func unmarshalProduct(d *decoder) core.Product {
	p := core.Product{
		ID:       core.ID(get(d, varint.Uint64)),
		SourceID: get(d, ord.String),
		Title:    get(d, ord.String),
	}
	hasPrice := get(d, ord.Bool)
	minor := get(d, varint.Int64)
	if hasPrice {
		p.Price = core.PriceOf(minor)
	}
	p.ImageRef = get(d, ord.String)
	p.Link = get(d, ord.String)
	p.Merchant = get(d, ord.String)
	p.Provenance = core.Provenance(get(d, varint.Int))
	p.Synthetic = get(d, ord.Bool)
	return p
}
