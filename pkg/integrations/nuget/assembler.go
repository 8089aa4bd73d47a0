package nuget

import (
	"context"
	"fmt"
	"iter"
)

// PageFetcher returns the decompressed bytes of a split catalog page.
type PageFetcher interface {
	FetchCatalogPage(ctx context.Context, pageID string) ([]byte, error)
}

// Assembler flattens a registration document into version entries,
// fetching split pages through its PageFetcher.
type Assembler struct {
	pages PageFetcher
}

// NewAssembler creates an Assembler that fetches split pages with f.
func NewAssembler(f PageFetcher) *Assembler {
	return &Assembler{pages: f}
}

// Pages yields the root's pages in document order with their records
// resolved. A split page is fetched only when the iteration reaches it, so
// stopping early skips the remaining requests. The sequence ends after the
// first error.
func (a *Assembler) Pages(ctx context.Context, root *CatalogRoot) iter.Seq2[CatalogPage, error] {
	return func(yield func(CatalogPage, error) bool) {
		for _, page := range root.Pages {
			if err := ctx.Err(); err != nil {
				yield(CatalogPage{}, err)
				return
			}
			if page.IsSplit() {
				resolved, err := a.fetchPage(ctx, page.ID)
				if err != nil {
					yield(CatalogPage{}, err)
					return
				}
				page = *resolved
			}
			if !yield(page, nil) {
				return
			}
		}
	}
}

func (a *Assembler) fetchPage(ctx context.Context, pageID string) (*CatalogPage, error) {
	if a.pages == nil {
		return nil, fmt.Errorf("split page %s: no page fetcher configured", pageID)
	}
	data, err := a.pages.FetchCatalogPage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog page %s: %w", pageID, err)
	}
	page, err := ParsePage(data)
	if err != nil {
		return nil, fmt.Errorf("catalog page %s: %w", pageID, err)
	}
	if page.ID == "" {
		page.ID = pageID
	}
	return page, nil
}

// Entries parses rootBytes and returns every catalog entry in document
// order. Records without a catalog entry are skipped.
func (a *Assembler) Entries(ctx context.Context, rootBytes []byte) ([]VersionEntry, error) {
	root, err := ParseRoot(rootBytes)
	if err != nil {
		return nil, err
	}
	if len(root.Pages) == 0 {
		return nil, ErrNoPages
	}

	var entries []VersionEntry
	for page, err := range a.Pages(ctx, root) {
		if err != nil {
			return nil, err
		}
		for _, rec := range page.Records {
			if rec.Entry != nil {
				entries = append(entries, *rec.Entry)
			}
		}
	}
	if len(entries) == 0 {
		return nil, ErrNoPackages
	}
	return entries, nil
}
