package catalog

import (
	"context"

	"github.com/poiesic/shopit/core"
	"github.com/poiesic/shopit/relay"
)

// Primary searches the primary catalog service.
type Primary struct {
	svc *service
}

var _ Adapter = (*Primary)(nil)

// NewPrimary creates the primary catalog adapter.
func NewPrimary(client *relay.Client, endpoint Endpoint, opts ...Option) (*Primary, error) {
	svc, err := newService(core.ProvenanceCatalog, client, endpoint, opts)
	if err != nil {
		return nil, err
	}
	return &Primary{svc: svc}, nil
}

func (a *Primary) Provenance() core.Provenance { return core.ProvenanceCatalog }

func (a *Primary) Applicable(d core.ItemDescriptor) bool { return primaryPhrase(d) != "" }

// Search queries by the descriptor's primary phrase and reads "products".
func (a *Primary) Search(ctx context.Context, d core.ItemDescriptor) ([]core.Product, error) {
	phrase := primaryPhrase(d)
	if phrase == "" {
		return nil, ErrNoPhrase
	}
	resp, err := a.svc.query(ctx, phrase, "")
	if err != nil {
		return nil, err
	}
	return normalize(d.Name, core.ProvenanceCatalog, records(resp, "products")), nil
}

// Editorial searches the editorial roundup service.
type Editorial struct {
	svc *service
}

var _ Adapter = (*Editorial)(nil)

// NewEditorial creates the editorial roundup adapter.
func NewEditorial(client *relay.Client, endpoint Endpoint, opts ...Option) (*Editorial, error) {
	svc, err := newService(core.ProvenanceEditorial, client, endpoint, opts)
	if err != nil {
		return nil, err
	}
	return &Editorial{svc: svc}, nil
}

func (a *Editorial) Provenance() core.Provenance { return core.ProvenanceEditorial }

func (a *Editorial) Applicable(d core.ItemDescriptor) bool { return editorialPhrase(d) != "" }

// Search queries by the editorial phrase. The roundup service answers
// under "products", "recommendations" or "results" depending on the
// article type, and tags entries with internal fields that are dropped.
func (a *Editorial) Search(ctx context.Context, d core.ItemDescriptor) ([]core.Product, error) {
	phrase := editorialPhrase(d)
	if phrase == "" {
		return nil, ErrNoPhrase
	}
	resp, err := a.svc.query(ctx, phrase, "")
	if err != nil {
		return nil, err
	}
	recs := records(resp, "products", "recommendations", "results")
	strip(recs)
	return normalize(d.Name, core.ProvenanceEditorial, recs), nil
}

// Visual searches by reference image.
type Visual struct {
	svc *service
}

var _ Adapter = (*Visual)(nil)

// NewVisual creates the visual-search adapter.
func NewVisual(client *relay.Client, endpoint Endpoint, opts ...Option) (*Visual, error) {
	svc, err := newService(core.ProvenanceVisual, client, endpoint, opts)
	if err != nil {
		return nil, err
	}
	return &Visual{svc: svc}, nil
}

func (a *Visual) Provenance() core.Provenance { return core.ProvenanceVisual }

// Applicable requires both a reference image and a visual phrase.
func (a *Visual) Applicable(d core.ItemDescriptor) bool { return d.HasVisualSearch() }

// Search sends the reference image with the visual phrase. Matches without
// both a title and a link are not purchasable and are dropped.
func (a *Visual) Search(ctx context.Context, d core.ItemDescriptor) ([]core.Product, error) {
	if !d.HasVisualSearch() {
		return nil, ErrNoPhrase
	}
	resp, err := a.svc.query(ctx, d.VisualQuery, d.ReferenceImageRef)
	if err != nil {
		return nil, err
	}

	var kept []map[string]any
	for _, rec := range records(resp, "visual_matches", "products", "exact_matches") {
		if str(rec, titleFields...) != "" && str(rec, linkFields...) != "" {
			kept = append(kept, rec)
		}
	}
	return normalize(d.Name, core.ProvenanceVisual, kept), nil
}

func primaryPhrase(d core.ItemDescriptor) string {
	if d.PrimaryQuery != "" {
		return d.PrimaryQuery
	}
	return d.EditorialQuery
}

func editorialPhrase(d core.ItemDescriptor) string {
	if d.EditorialQuery != "" {
		return d.EditorialQuery
	}
	return d.PrimaryQuery
}
