package gqlresp

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response represents a GraphQL response envelope.
type Response struct {
	Data       json.RawMessage `json:"data,omitempty"`
	Errors     []Error         `json:"errors,omitempty"`
	Extensions map[string]any  `json:"extensions,omitempty"`
}

// Error represents a single entry of the GraphQL errors list.
type Error struct {
	Message   string     `json:"message"`
	Path      []any      `json:"path,omitempty"`
	Locations []Location `json:"locations,omitempty"`
}

// Location points at the query position an error refers to.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Parse parses a GraphQL response from raw JSON.
func Parse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing GraphQL response: %w", err)
	}

	return &resp, nil
}

// HasData reports whether the response carries a non-null data member.
func (r *Response) HasData() bool {
	trimmed := bytes.TrimSpace(r.Data)

	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// ParseData parses the data field into the provided type.
func (r *Response) ParseData(v any) error {
	if !r.HasData() {
		return fmt.Errorf("response has no data field")
	}

	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("parsing data: %w", err)
	}

	return nil
}
