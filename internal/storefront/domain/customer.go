package domain

import "time"

// Customer is the commerce platform's customer record, read-only to this
// service and never cached. The JSON tags define the public shape
// returned in session responses; nothing sensitive lives here.
type Customer struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	DisplayName      string    `json:"displayName"`
	Phone            string    `json:"phone,omitempty"`
	AcceptsMarketing bool      `json:"acceptsMarketing"`
	CreatedAt        time.Time `json:"createdAt"`
}
