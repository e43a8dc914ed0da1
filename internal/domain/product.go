package domain

// Record is a single row of a resource file. Every resource carries an
// integer id and at most one image asset.
type Record interface {
	RecordID() int64
	ImagePath() string
}

// ProductPrice is the price block of a catalog product
type ProductPrice struct {
	Current  float64 `json:"current"`
	OldPrice float64 `json:"old_price"`
	Discount float64 `json:"discount"`
}

// Product represents a product in the catalog
type Product struct {
	ID              int64        `json:"id"`
	Title           string       `json:"title"`
	Rate            float64      `json:"rate"`
	Price           ProductPrice `json:"price"`
	Description     string       `json:"description"`
	FullDescription string       `json:"full_description"`
	UzumLink        string       `json:"uzum_link"`
	Image           string       `json:"image"`
	Category        string       `json:"category"`
}

func (p Product) RecordID() int64   { return p.ID }
func (p Product) ImagePath() string { return p.Image }

// Category represents a product category. Products reference it by title.
type Category struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
}

func (c Category) RecordID() int64   { return c.ID }
func (c Category) ImagePath() string { return c.Image }
