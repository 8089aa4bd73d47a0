package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrDecode is returned when a repository document cannot be decoded.
var ErrDecode = errors.New("malformed github response")

// Repository is the subset of GitHub's repository object used for
// maintenance signals.
type Repository struct {
	FullName  string    `json:"full_name"`
	HTMLURL   string    `json:"html_url"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	PushedAt  time.Time `json:"pushed_at"`
}

// ParseRepository decodes a repository document. Null timestamps (for
// example pushed_at on an empty repository) decode as the zero time.
func ParseRepository(data []byte) (*Repository, error) {
	var r Repository
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &r, nil
}
