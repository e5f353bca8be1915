package models

// FilterSpec describes the listings worth looking at. It only steers
// navigation and facet clicks; extracted records are never filtered by it.
type FilterSpec struct {
	MinPrice  int      `mapstructure:"min_price" validate:"gte=0"`
	MaxPrice  int      `mapstructure:"max_price" validate:"gtefield=MinPrice"`
	Brands    []string `mapstructure:"brands" validate:"dive,required"`
	MinRating float64  `mapstructure:"min_rating" validate:"gte=0,lte=5"`
}

func (f FilterSpec) HasPriceRange() bool {
	return f.MaxPrice > 0 && f.MaxPrice >= f.MinPrice
}

// IsZero reports whether f constrains nothing.
func (f FilterSpec) IsZero() bool {
	return !f.HasPriceRange() && len(f.Brands) == 0 && f.MinRating <= 0
}
