package book

type BookReq struct {
	Title         string `json:"title" validate:"required"`
	Author        string `json:"author" validate:"required"`
	TotalQuantity int64  `json:"total_quantity" validate:"gte=0"`
	CategoryID    *int64 `json:"category_id,omitempty"`
}

type CategoryReq struct {
	Name string `json:"name" validate:"required,max=100"`
}
