package models

import "fmt"

// SearchBox identifies which of the three search inputs a query or a
// candidate selection belongs to.
type SearchBox string

const (
	BoxStart        SearchBox = "start"
	BoxEnd          SearchBox = "end"
	BoxIntermediate SearchBox = "intermediate"
)

// ParseSearchBox validates a client-supplied box name.
func ParseSearchBox(s string) (SearchBox, error) {
	switch SearchBox(s) {
	case BoxStart, BoxEnd, BoxIntermediate:
		return SearchBox(s), nil
	default:
		return "", fmt.Errorf("unknown search box: %q", s)
	}
}

// Candidate is a single geocoder result offered for selection. PersistentID
// is set when the candidate matched a stop already saved in the catalog.
type Candidate struct {
	Name         string  `json:"name"`
	Address      string  `json:"address,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	PersistentID *string `json:"persistent_id,omitempty"`
}

// SearchView is the visible state of one search box.
type SearchView struct {
	Query      string      `json:"query"`
	Loading    bool        `json:"loading"`
	Candidates []Candidate `json:"candidates"`
	Warning    string      `json:"warning,omitempty"`
}
