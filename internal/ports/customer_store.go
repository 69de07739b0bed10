package ports

import (
	"context"
	"field-route-service/internal/domain"
)

type CustomerFilter struct {
	Search string
	Limit  int
}

// Port: a boundary for retrieving customer records and their service
// locations from a data source.
type CustomerStore interface {
	// GetCustomerByID returns nil (with no error) when the customer
	// does not exist.
	GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error)
	// ListRoutable returns customers having at least one location with a
	// street address and coordinates, i.e. usable for route planning.
	ListRoutable(ctx context.Context, filter CustomerFilter) ([]*domain.Customer, error)
}
