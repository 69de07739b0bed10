package dto

type LocationResponse struct {
	ID            string   `json:"id"`
	StreetAddress string   `json:"street_address"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	PostalCode    string   `json:"postal_code"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	IsPrimary     bool     `json:"is_primary"`
	AccessNotes   string   `json:"access_notes,omitempty"`
}

type CustomerResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Locations []LocationResponse `json:"locations"`
}

type ListCustomersResponse struct {
	Customers []CustomerResponse `json:"customers"`
	Total     int                `json:"total"`
}
