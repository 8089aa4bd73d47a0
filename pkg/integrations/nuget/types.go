package nuget

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema is returned when a registration document cannot be decoded.
	ErrSchema = errors.New("malformed registration document")

	// ErrNoPages is returned when a root document lists no catalog pages.
	ErrNoPages = errors.New("catalog has no pages")

	// ErrNoPackages is returned when catalog pages exist but none carries a package entry.
	ErrNoPackages = errors.New("catalog pages have no packages")
)

// splitPageMarker identifies page ids whose records live at a separate URL.
const splitPageMarker = "/page/"

// CatalogRoot is the registration index for one package id.
type CatalogRoot struct {
	ID    string        `json:"@id"`
	Count int           `json:"count"`
	Pages []CatalogPage `json:"items"`
}

// CatalogPage groups a contiguous range of versions.
type CatalogPage struct {
	ID      string          `json:"@id"`
	Count   int             `json:"count"`
	Lower   string          `json:"lower"`
	Upper   string          `json:"upper"`
	Records []PackageRecord `json:"items"`
}

// IsSplit reports whether the page's records must be fetched separately:
// it carries no inline records and its id contains the page marker.
func (p CatalogPage) IsSplit() bool {
	return len(p.Records) == 0 && strings.Contains(p.ID, splitPageMarker)
}

// PackageRecord wraps one catalog entry.
type PackageRecord struct {
	ID    string        `json:"@id"`
	Entry *VersionEntry `json:"catalogEntry"`
}

// VersionEntry is the metadata of one published version.
type VersionEntry struct {
	ID          string       `json:"id"`
	Version     string       `json:"version"`
	Listed      bool         `json:"listed"`
	Deprecation *Deprecation `json:"deprecation,omitempty"`
	ProjectURL  string       `json:"projectUrl,omitempty"`
	Published   string       `json:"published,omitempty"`
}

// UnmarshalJSON decodes an entry. The registry omits "listed" for listed
// versions, so a missing field decodes as true.
func (e *VersionEntry) UnmarshalJSON(b []byte) error {
	type raw VersionEntry
	r := raw{Listed: true}
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*e = VersionEntry(r)
	return nil
}

// Deprecation is the registry's deprecation sub-document.
type Deprecation struct {
	Message          string            `json:"message,omitempty"`
	Reasons          []string          `json:"reasons,omitempty"`
	AlternatePackage *AlternatePackage `json:"alternatePackage,omitempty"`
}

// AlternatePackage names the package the registry recommends instead.
type AlternatePackage struct {
	ID    string `json:"id"`
	Range string `json:"range,omitempty"`
}

// ParseRoot decodes a registration index document.
func ParseRoot(data []byte) (*CatalogRoot, error) {
	var root CatalogRoot
	if err := decode(data, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

// ParsePage decodes a single registration page document.
func ParsePage(data []byte) (*CatalogPage, error) {
	var page CatalogPage
	if err := decode(data, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func decode(data []byte, v any) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed[0] != '{' {
		return fmt.Errorf("%w: expected a JSON object", ErrSchema)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}
