package repositories

import (
	"context"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/entities"
)

// ProductCatalog is a read-only source of storefront products.
type ProductCatalog interface {
	List(ctx context.Context) ([]*entities.Product, error)
}

// ProductLookup is implemented by catalogs that can resolve a product by ID
// without listing everything.
type ProductLookup interface {
	FindByID(ctx context.Context, id string) (*entities.Product, error)
}

// ShopifyCatalog lists the products of the connected Shopify store.
type ShopifyCatalog interface {
	ListShopifyProducts(ctx context.Context) ([]*entities.ShopifyProduct, error)
}
