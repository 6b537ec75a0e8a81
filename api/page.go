package api

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
)

// DefaultPageSize is the page size list views request.
const DefaultPageSize = 10

// ListParams are the common list query parameters. Zero values are omitted.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	return v
}

// Page is one page of a list endpoint. It decodes both the paginated
// {"results": [...], "count": n} shape and a bare array; for the latter, and
// when count is absent, Count is the number of results.
type Page[T any] struct {
	Results []T `json:"results"`
	Count   int `json:"count"`
}

func (p *Page[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		p.Results = items
		p.Count = len(items)
		return nil
	}

	var raw struct {
		Results []T  `json:"results"`
		Count   *int `json:"count"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Results = raw.Results
	if raw.Count != nil {
		p.Count = *raw.Count
	} else {
		p.Count = len(raw.Results)
	}
	return nil
}

// TotalPages is the number of pages of pageSize needed for Count records.
func (p Page[T]) TotalPages(pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return (p.Count + pageSize - 1) / pageSize
}
