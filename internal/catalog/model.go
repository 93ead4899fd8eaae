// Package catalog holds the vehicle reference data: tanks and their
// nation, class, and status lookups. It is uniform CRUD plumbing; the only
// invariants are name uniqueness and referential integrity.
package catalog

import "time"

// Nation is a country of origin lookup entry.
type Nation struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// TankClass is a vehicle class lookup entry (heavy, medium, destroyer...).
type TankClass struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Status is a production status lookup entry.
type Status struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// Tank is a catalog vehicle. The *Name fields are denormalized from the
// lookups for list views.
type Tank struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Tier       int        `json:"tier"`
	NationID   string     `json:"nationId"`
	NationName string     `json:"nationName,omitempty"`
	ClassID    string     `json:"classId"`
	ClassName  string     `json:"className,omitempty"`
	StatusID   string     `json:"statusId"`
	StatusName string     `json:"statusName,omitempty"`
	CreatedBy  string     `json:"createdBy,omitempty"`
	UpdatedBy  string     `json:"updatedBy,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// TankPage is one page of the tank listing.
type TankPage struct {
	Items      []*Tank `json:"items"`
	TotalCount int     `json:"totalCount"`
	PageNumber int     `json:"pageNumber"`
	PageSize   int     `json:"pageSize"`
}

// CreateTankInput carries a new tank into the store.
type CreateTankInput struct {
	Name      string
	Tier      int
	NationID  string
	ClassID   string
	StatusID  string
	CreatedBy string
}

// UpdateTankInput carries changes to an existing tank.
type UpdateTankInput struct {
	Name      string
	Tier      int
	NationID  string
	ClassID   string
	StatusID  string
	UpdatedBy string
}
