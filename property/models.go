package property

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Listing status values.
const (
	StatusForSale  = "forSale"
	StatusForRent  = "forRent"
	StatusSold     = "sold"
	StatusRented   = "rented"
	StatusInactive = "inactive"
)

// Features flags a listing's amenities. Stored as a single JSON column.
type Features struct {
	SwimmingPool    bool `json:"swimmingPool"`
	Garage          bool `json:"garage"`
	Balcony         bool `json:"balcony"`
	Security        bool `json:"security"`
	Garden          bool `json:"garden"`
	AirConditioning bool `json:"airConditioning"`
	Furnished       bool `json:"furnished"`
	Parking         bool `json:"parking"`
}

// Property is a real estate listing.
type Property struct {
	bun.BaseModel `bun:"table:properties,alias:prop"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Description   string     `bun:"description,notnull" json:"description,omitempty"`
	Price         float64    `bun:"price,notnull" json:"price,omitempty"`
	PriceType     string     `bun:"price_type,notnull" json:"priceType,omitempty"`
	Status        string     `bun:"status,notnull" json:"status,omitempty"`
	Address       string     `bun:"address,notnull" json:"address,omitempty"`
	Rooms         int        `bun:"rooms" json:"rooms,omitempty"`
	Bathrooms     int        `bun:"bathrooms" json:"bathrooms,omitempty"`
	PropertyType  string     `bun:"property_type,notnull" json:"propertyType,omitempty"`
	PropertySize  float64    `bun:"property_size,notnull" json:"propertySize,omitempty"`
	IsAvailable   bool       `bun:"is_available,notnull,default:true" json:"isAvailable"`
	Features      Features   `bun:"features,type:jsonb" json:"features"`
	Images        []string   `bun:"images,type:jsonb" json:"images,omitempty"`
	Documents     []string   `bun:"documents,type:jsonb" json:"documents,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt,omitempty"`
}
