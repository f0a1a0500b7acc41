package domain

// Package represents a catalog entry as served by the FitStack Core catalog.
// The price is the display string shown to users; it is parsed into a numeric
// amount only at checkout time, and the raw values are snapshotted into the
// order so later catalog edits never affect existing orders.
type Package struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Currency string   `json:"currency"`
	Period   string   `json:"period"`
	Features []string `json:"features"`
	IsActive bool     `json:"is_active"`
}
