package model

import "time"

// Company is a tracked company in the deal-sourcing workspace.
type Company struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	URL         string      `json:"url"`
	Description string      `json:"description"`
	Industry    string      `json:"industry"`
	Stage       string      `json:"stage"`
	Tags        []string    `json:"tags"`
	Location    string      `json:"location,omitempty"`
	Founded     int         `json:"founded,omitempty"`
	Logo        string      `json:"logo,omitempty"`
	Enrichment  *Enrichment `json:"enrichment"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Enriched reports whether the company carries any enrichment.
func (c *Company) Enriched() bool {
	return c.Enrichment != nil
}

// CompanyUpdate is a partial update; nil fields are left unchanged.
type CompanyUpdate struct {
	Name        *string   `json:"name,omitempty"`
	URL         *string   `json:"url,omitempty"`
	Description *string   `json:"description,omitempty"`
	Industry    *string   `json:"industry,omitempty"`
	Stage       *string   `json:"stage,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Location    *string   `json:"location,omitempty"`
	Founded     *int      `json:"founded,omitempty"`
	Logo        *string   `json:"logo,omitempty"`
}

// Apply copies every non-nil field of u onto c.
func (u CompanyUpdate) Apply(c *Company) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.URL != nil {
		c.URL = *u.URL
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Industry != nil {
		c.Industry = *u.Industry
	}
	if u.Stage != nil {
		c.Stage = *u.Stage
	}
	if u.Tags != nil {
		c.Tags = append([]string(nil), (*u.Tags)...)
	}
	if u.Location != nil {
		c.Location = *u.Location
	}
	if u.Founded != nil {
		c.Founded = *u.Founded
	}
	if u.Logo != nil {
		c.Logo = *u.Logo
	}
}

// CompanyList is a named, ordered group of companies.
type CompanyList struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CompanyIDs  []string  `json:"company_ids"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SearchFilters is the filter set persisted with a saved search.
type SearchFilters struct {
	Industries []string `json:"industries"`
	Stages     []string `json:"stages"`
	Query      string   `json:"query"`
}

// SavedSearch is a named filter set.
type SavedSearch struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Filters   SearchFilters `json:"filters"`
	CreatedAt time.Time     `json:"created_at"`
}
