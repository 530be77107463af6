package model

import (
	"strings"
	"time"
)

// Project groups the candidate items of one research effort.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectInput carries caller-supplied project fields.
type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (in ProjectInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalidf("project name is required")
	}
	return nil
}

// Item is one candidate product inside a project. Its price list lives in the
// ledger; deleting an item cascades to its prices at the schema level.
type Item struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemInput carries caller-supplied item fields.
type ItemInput struct {
	Name  string `json:"name"`
	Notes string `json:"notes,omitempty"`
}

func (in ItemInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalidf("item name is required")
	}
	return nil
}

// SourceURL is a deduplicated external URL a price was observed at. Rows are
// keyed by the normalized form so the same page never registers twice.
type SourceURL struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	NormalizedURL string    `json:"normalized_url"`
	Title         string    `json:"title,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
