package types

import "time"

// Product represents an item in the shop catalog.
type Product struct {
	// ID is the unique identifier of the product.
	ID int `json:"id" db:"id"`

	// Name is the human-readable product name.
	Name string `json:"name" db:"name"`

	// Price is the unit price. Must be positive; the database enforces
	// this with a check constraint.
	Price float64 `json:"price" db:"price"`

	// ImageURL is the resolved public URL of the product image, either
	// supplied directly by the client or produced by uploading an image
	// file to the configured media host.
	ImageURL string `json:"imageUrl" db:"image_url"`

	// Description is optional free-form text about the product.
	Description string `json:"description,omitempty" db:"description"`

	// CreatedAt is the timestamp at which the product was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the product.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
