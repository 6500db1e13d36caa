package entities

// Product is an item of the storefront catalog.
type Product struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Price         float64  `json:"price" yaml:"price"`
	OriginalPrice *float64 `json:"originalPrice" yaml:"originalPrice"`
	Image         string   `json:"image" yaml:"image"`
	Category      string   `json:"category" yaml:"category"`
	Description   string   `json:"description" yaml:"description"`
	InStock       bool     `json:"inStock" yaml:"inStock"`
	IsOnSale      bool     `json:"isOnSale" yaml:"isOnSale"`
}

// GarmentDescription is the text used to describe the product to the image
// model.
func (p *Product) GarmentDescription() string {
	if p.Category == "" {
		return p.Name
	}
	return p.Name + " (" + p.Category + ")"
}

// ShopifyProduct is a product listed by the Shopify store, already mapped to
// the storefront's listing schema.
type ShopifyProduct struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Handle      string `json:"handle"`
	ShopifyURL  string `json:"shopifyUrl"`
}
