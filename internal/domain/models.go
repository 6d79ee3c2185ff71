package domain

import "time"

// Variant is one size of a product with its own stock.
type Variant struct {
	Size  string `json:"size" firestore:"size" yaml:"size" validate:"required"`
	Stock int64  `json:"stock" firestore:"stock" yaml:"stock" validate:"gte=0"`
}

// Product is a catalog item. Prices are FCFA units.
type Product struct {
	ID            string    `json:"id" firestore:"-" yaml:"id"`
	Name          string    `json:"name" firestore:"name" yaml:"name" validate:"required"`
	Description   string    `json:"description" firestore:"description" yaml:"description"`
	Price         int64     `json:"price" firestore:"price" yaml:"price" validate:"gte=0"`
	OriginalPrice *int64    `json:"originalPrice,omitempty" firestore:"originalPrice,omitempty" yaml:"originalPrice,omitempty"`
	ImageURLs     []string  `json:"imageUrls" firestore:"imageUrls" yaml:"imageUrls"`
	Categories    []string  `json:"categories" firestore:"categories" yaml:"categories"`
	Variants      []Variant `json:"variants" firestore:"variants" yaml:"variants" validate:"min=1,dive"`
	Colors        []string  `json:"colors,omitempty" firestore:"colors,omitempty" yaml:"colors,omitempty"`
	IsNew         bool      `json:"isNew" firestore:"isNew" yaml:"isNew"`
	ReviewCount   int64     `json:"reviewCount" firestore:"reviewCount" yaml:"-"`
	AverageRating float64   `json:"averageRating" firestore:"averageRating" yaml:"-"`
	CreatedAt     time.Time `json:"createdAt" firestore:"createdAt" yaml:"-"`
	UpdatedAt     time.Time `json:"updatedAt" firestore:"updatedAt" yaml:"-"`
}

func (p *Product) GetID() string   { return p.ID }
func (p *Product) SetID(id string) { p.ID = id }

// Variant returns the variant with the given size.
func (p *Product) Variant(size string) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].Size == size {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// MainImage is the first image url, or empty.
func (p *Product) MainImage() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

// TotalStock sums stock over all variants.
func (p *Product) TotalStock() int64 {
	var n int64
	for _, v := range p.Variants {
		n += v.Stock
	}
	return n
}

// Category forms a tree through ParentID.
type Category struct {
	ID        string `json:"id" firestore:"-" yaml:"id"`
	Name      string `json:"name" firestore:"name" yaml:"name" validate:"required"`
	ParentID  string `json:"parentId,omitempty" firestore:"parentId,omitempty" yaml:"parentId,omitempty"`
	IsVisible bool   `json:"isVisible" firestore:"isVisible" yaml:"isVisible"`
}

func (c *Category) GetID() string   { return c.ID }
func (c *Category) SetID(id string) { c.ID = id }

// Review lives under products/{id}/reviews.
type Review struct {
	ID          string    `json:"id" firestore:"-"`
	ProductID   string    `json:"productId" firestore:"productId"`
	Author      string    `json:"author" firestore:"author"`
	AuthorEmail string    `json:"authorEmail" firestore:"authorEmail"`
	Rating      int       `json:"rating" firestore:"rating" validate:"gte=1,lte=5"`
	Comment     string    `json:"comment" firestore:"comment" validate:"required,max=2000"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
}

func (r *Review) GetID() string   { return r.ID }
func (r *Review) SetID(id string) { r.ID = id }
