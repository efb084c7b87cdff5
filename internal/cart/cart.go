package cart

// Item is one line of a cart. UnitPrice is the price snapshot taken when the
// line was first added; the current catalog price only appears in the
// enriched view.
type Item struct {
	ProductID int   `json:"productId"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unitPrice"`
}

// Cart is the persisted aggregate. Version is the optimistic concurrency
// token compared at write time; two tabs racing on the same cart cannot
// silently drop each other's update.
type Cart struct {
	UserID     int    `json:"userId"`
	Items      []Item `json:"items"`
	TotalPrice int64  `json:"totalPrice"`
	Version    int    `json:"version"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// Total recomputes the derived total from the item list. Every mutator calls
// this before persisting; a client-supplied total is never trusted.
func Total(items []Item) int64 {
	var sum int64
	for _, it := range items {
		sum += it.UnitPrice * int64(it.Quantity)
	}
	return sum
}

// EnrichedItem decorates a line with current product data for display. The
// enrichment is never the basis for TotalPrice.
type EnrichedItem struct {
	Item
	Name         string `json:"name"`
	Image        string `json:"image,omitempty"`
	CurrentPrice int64  `json:"currentPrice"`
	CountInStock int    `json:"countInStock"`
}

// View is what cart reads return to callers.
type View struct {
	UserID     int            `json:"userId"`
	Items      []EnrichedItem `json:"items"`
	TotalPrice int64          `json:"totalPrice"`
	Version    int            `json:"version"`
}
