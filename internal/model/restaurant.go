package model

// Restaurant is a location in the group's registry. Rows are seeded once at
// setup time and read-only to the scrape pipeline afterwards.
type Restaurant struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	ShortName          string `json:"short_name"`
	Brand              string `json:"brand"`
	City               string `json:"city"`
	State              string `json:"state"`
	VendorStoreID      string `json:"vendor_store_id,omitempty"`
	NetchexCompanyName string `json:"netchex_company_name,omitempty"`
	IsActive           bool   `json:"is_active"`
}
