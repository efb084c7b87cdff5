package product

// Product represents a catalog entry and maps to the `products` table.
// Price is stored in whole VND, so integer arithmetic is exact.
type Product struct {
	ID           int    `json:"productId"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Image        string `json:"image,omitempty"`
	Category     string `json:"category,omitempty"`
	Origin       string `json:"origin,omitempty"`
	Price        int64  `json:"price"`
	CountInStock int    `json:"countInStock"`
	Sold         int    `json:"sold"`
	IsActive     bool   `json:"isActive"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}
