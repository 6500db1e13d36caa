package usecases

import (
	"context"
	"fmt"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/entities"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/repositories"
)

type CatalogUseCase struct {
	catalog repositories.ProductCatalog
	shopify repositories.ShopifyCatalog
}

func NewCatalogUseCase(catalog repositories.ProductCatalog, shopify repositories.ShopifyCatalog) *CatalogUseCase {
	return &CatalogUseCase{
		catalog: catalog,
		shopify: shopify,
	}
}

func (uc *CatalogUseCase) ListProducts(ctx context.Context) ([]*entities.Product, error) {
	products, err := uc.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// FindProduct looks a product up by ID. An unknown ID is a validation error
// since it comes from the client. Catalogs without a direct lookup are
// scanned in order.
func (uc *CatalogUseCase) FindProduct(ctx context.Context, id string) (*entities.Product, error) {
	if lookup, ok := uc.catalog.(repositories.ProductLookup); ok {
		return lookup.FindByID(ctx, id)
	}

	products, err := uc.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}

	return nil, errs.Validation("unknown product: %s", id)
}

func (uc *CatalogUseCase) ListShopifyProducts(ctx context.Context) ([]*entities.ShopifyProduct, error) {
	if uc.shopify == nil {
		return nil, errs.Configuration("Shopify catalog is not configured")
	}
	return uc.shopify.ListShopifyProducts(ctx)
}
