// model/book.go
package model

import "time"

type Book struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	Author            string     `json:"author"`
	TotalQuantity     int64      `json:"total_quantity"`
	AvailableQuantity int64      `json:"available_quantity"`
	CategoryID        *int64     `json:"category_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	DeletedAt         *time.Time `json:"-"`
}

// Category is a flat catalog taxonomy; books reference at most one.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
