package model

// ShopifyProductsResponse represents the response structure of the Shopify
// Admin API products.json endpoint
type ShopifyProductsResponse struct {
	Products []ShopifyProduct `json:"products"`
}

// ShopifyProduct represents a single product of the store
type ShopifyProduct struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	BodyHTML    string           `json:"body_html"`
	Handle      string           `json:"handle"`
	ProductType string           `json:"product_type"`
	Status      string           `json:"status"`
	Variants    []ShopifyVariant `json:"variants"`
	Images      []ShopifyImage   `json:"images"`
}

// ShopifyVariant はバリエーションごとの価格と在庫
// 価格は "85.90" のような文字列で返される
type ShopifyVariant struct {
	ID                  int64   `json:"id"`
	Price               string  `json:"price"`
	CompareAtPrice      *string `json:"compare_at_price"`
	InventoryQuantity   int     `json:"inventory_quantity"`
	InventoryManagement *string `json:"inventory_management"`
}

// ShopifyImage represents a product image
type ShopifyImage struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
}

// ShopifyErrorResponse is returned on 4xx responses. Errors is either a
// string or a map of field names to messages.
type ShopifyErrorResponse struct {
	Errors any `json:"errors"`
}
