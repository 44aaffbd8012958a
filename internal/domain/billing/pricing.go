package billing

// Price is one purchasable plan
type Price struct {
	ID       string `json:"priceId"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Interval string `json:"interval"`
}

// Pricing is the public price table keyed by interval
type Pricing struct {
	Monthly Price `json:"monthly"`
	Yearly  Price `json:"yearly"`
}

// DefaultPricing builds the price table around the configured price ids
func DefaultPricing(monthlyID, yearlyID string) Pricing {
	return Pricing{
		Monthly: Price{ID: monthlyID, Name: "Parlour Monthly", Amount: 999, Currency: "usd", Interval: "month"},
		Yearly:  Price{ID: yearlyID, Name: "Parlour Yearly", Amount: 9999, Currency: "usd", Interval: "year"},
	}
}

// Has reports whether priceID is one of the offered prices
func (p Pricing) Has(priceID string) bool {
	return priceID != "" && (priceID == p.Monthly.ID || priceID == p.Yearly.ID)
}
