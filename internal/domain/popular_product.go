package domain

// Price is the price block shared by the showcase and popular products
type Price struct {
	Current  float64 `json:"current"`
	Old      float64 `json:"old"`
	Discount float64 `json:"discount"`
}

// PopularProduct is a product highlighted on the storefront homepage
type PopularProduct struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       Price   `json:"price"`
	Rate        float64 `json:"rate"`
	Image       string  `json:"image"`
	UzumLink    string  `json:"uzum_link"`
}

func (p PopularProduct) RecordID() int64   { return p.ID }
func (p PopularProduct) ImagePath() string { return p.Image }

// Showcase is the homepage banner. It is stored as a one-element array.
type Showcase struct {
	ID       int64  `json:"id"`
	MainText string `json:"main_text"`
	TagLine  string `json:"tag_line"`
	Price    Price  `json:"price"`
	Image    string `json:"image"`
	UzumLink string `json:"uzum_link"`
}

func (s Showcase) RecordID() int64   { return s.ID }
func (s Showcase) ImagePath() string { return s.Image }
