package checkout

// PricingConfig holds the shipping step function: carts at or above the
// free-shipping threshold ship free, everything below pays the flat rate,
// and expedited delivery always pays its own flat rate.
type PricingConfig struct {
	FreeShippingThreshold int64
	FlatRate              int64
	ExpeditedRate         int64
}

// Quote is the deterministic price breakdown for a checkout attempt.
type Quote struct {
	ItemsPrice    int64 `json:"itemsPrice"`
	ShippingPrice int64 `json:"shippingPrice"`
	TotalPrice    int64 `json:"totalPrice"`
}

// QuoteFor computes the full breakdown from the recomputed cart total. Pure
// function of its inputs; nothing here reads storage.
func (p PricingConfig) QuoteFor(itemsPrice int64, expedited bool) Quote {
	shipping := p.shippingPrice(itemsPrice, expedited)
	return Quote{
		ItemsPrice:    itemsPrice,
		ShippingPrice: shipping,
		TotalPrice:    itemsPrice + shipping,
	}
}

func (p PricingConfig) shippingPrice(itemsPrice int64, expedited bool) int64 {
	if expedited {
		return p.ExpeditedRate
	}
	if itemsPrice >= p.FreeShippingThreshold {
		return 0
	}
	return p.FlatRate
}
