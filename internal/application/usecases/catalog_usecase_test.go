package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/entities"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
)

type stubCatalog struct {
	products []*entities.Product
	err      error
}

func (c *stubCatalog) List(ctx context.Context) ([]*entities.Product, error) {
	return c.products, c.err
}

type stubShopify struct {
	products []*entities.ShopifyProduct
}

func (c *stubShopify) ListShopifyProducts(ctx context.Context) ([]*entities.ShopifyProduct, error) {
	return c.products, nil
}

func TestCatalogUseCase_FindProduct(t *testing.T) {
	uc := NewCatalogUseCase(&stubCatalog{products: []*entities.Product{
		{ID: "prod_001", Name: "Tracksuit"},
		{ID: "prod_002", Name: "Dress"},
	}}, nil)

	product, err := uc.FindProduct(context.Background(), "prod_002")
	require.NoError(t, err)
	assert.Equal(t, "Dress", product.Name)

	_, err = uc.FindProduct(context.Background(), "prod_404")
	assert.True(t, errs.Is(err, errs.KindValidation))
}

func TestCatalogUseCase_ListProductsError(t *testing.T) {
	cause := errors.New("disk on fire")
	uc := NewCatalogUseCase(&stubCatalog{err: cause}, nil)

	_, err := uc.ListProducts(context.Background())
	assert.ErrorIs(t, err, cause)

	_, err = uc.FindProduct(context.Background(), "prod_001")
	assert.ErrorIs(t, err, cause)
}

func TestCatalogUseCase_ListShopifyProducts(t *testing.T) {
	uc := NewCatalogUseCase(&stubCatalog{}, nil)
	_, err := uc.ListShopifyProducts(context.Background())
	assert.True(t, errs.Is(err, errs.KindConfiguration))

	uc = NewCatalogUseCase(&stubCatalog{}, &stubShopify{products: []*entities.ShopifyProduct{{ID: 7}}})
	products, err := uc.ListShopifyProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

type lookupCatalog struct {
	stubCatalog
	lookups int
}

func (c *lookupCatalog) FindByID(ctx context.Context, id string) (*entities.Product, error) {
	c.lookups++
	if id == "prod_001" {
		return &entities.Product{ID: id, Name: "Tracksuit"}, nil
	}
	return nil, errs.Validation("unknown product: %s", id)
}

func TestCatalogUseCase_FindProductUsesLookup(t *testing.T) {
	catalog := &lookupCatalog{stubCatalog: stubCatalog{err: errors.New("list must not be called")}}
	uc := NewCatalogUseCase(catalog, nil)

	product, err := uc.FindProduct(context.Background(), "prod_001")
	require.NoError(t, err)
	assert.Equal(t, "Tracksuit", product.Name)

	_, err = uc.FindProduct(context.Background(), "prod_404")
	assert.True(t, errs.Is(err, errs.KindValidation))
	assert.Equal(t, 2, catalog.lookups)
}
