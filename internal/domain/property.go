package domain

// Property is a rentable unit owned by a landlord.
type Property struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Street           string  `json:"street"`
	Number           int     `json:"number"`
	Complement       string  `json:"complement,omitempty"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	Size             float64 `json:"size"`
	RoomQuantity     int     `json:"roomQuantity"`
	BathroomQuantity int     `json:"bathroomQuantity"`
	Suites           int     `json:"suites"`
	CarSpace         int     `json:"car_space"`
	Active           bool    `json:"active"`
	LandlordID       int64   `json:"landlord_id"`
}

// Maintenance is a finished maintenance expense reported for a landlord.
type Maintenance struct {
	ID         int64     `json:"id"`
	TotalValue float64   `json:"total_value"`
	Property   *Property `json:"property,omitempty"`
}
