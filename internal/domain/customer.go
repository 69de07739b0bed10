package domain

import "fmt"

// Customer as seen by route planning: identity plus the service locations
// a technician may be dispatched to. Customer records are owned by the
// customer store; this core treats them as read-only.
type Customer struct {
	ID        string
	Name      string
	Locations []ServiceLocation
}

// A single serviceable address belonging to one customer.
type ServiceLocation struct {
	ID            string
	StreetAddress string
	City          string
	State         string
	PostalCode    string
	Latitude      *float64
	Longitude     *float64
	IsPrimary     bool
	AccessNotes   string
}

func (l ServiceLocation) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// FormattedAddress renders the location as a single mailing-style line,
// the form mapping providers accept as a destination.
func (l ServiceLocation) FormattedAddress() string {
	return fmt.Sprintf("%s, %s, %s %s", l.StreetAddress, l.City, l.State, l.PostalCode)
}

// RouteLocation selects the one location that feeds into a route:
// the explicit primary, else the first with coordinates, else the first.
// At most one address per customer ever enters a route.
func (c *Customer) RouteLocation() (ServiceLocation, bool) {
	if len(c.Locations) == 0 {
		return ServiceLocation{}, false
	}

	for _, l := range c.Locations {
		if l.IsPrimary {
			return l, true
		}
	}

	for _, l := range c.Locations {
		if l.HasCoordinates() {
			return l, true
		}
	}

	return c.Locations[0], true
}
