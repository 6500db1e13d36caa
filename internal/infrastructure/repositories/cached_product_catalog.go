package repositories

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/entities"
	domainrepos "github.com/lakarijeprvovencani/tl-tryon/internal/domain/repositories"
)

const (
	DefaultCatalogCacheTTL = 5 * time.Minute

	productsKey = "products"
	listingsKey = "listings"
)

// UpstreamCatalog is a remote catalog serving both listing shapes, such as
// the Shopify store.
type UpstreamCatalog interface {
	domainrepos.ProductCatalog
	domainrepos.ShopifyCatalog
}

// CachedProductCatalog keeps the last successful answer of an upstream
// catalog for a TTL. Failures are never cached and concurrent misses share
// one upstream call.
type CachedProductCatalog struct {
	upstream UpstreamCatalog
	products *expirable.LRU[string, []*entities.Product]
	listings *expirable.LRU[string, []*entities.ShopifyProduct]
	group    singleflight.Group
}

func NewCachedProductCatalog(upstream UpstreamCatalog, ttl time.Duration) *CachedProductCatalog {
	if ttl <= 0 {
		ttl = DefaultCatalogCacheTTL
	}
	return &CachedProductCatalog{
		upstream: upstream,
		products: expirable.NewLRU[string, []*entities.Product](1, nil, ttl),
		listings: expirable.NewLRU[string, []*entities.ShopifyProduct](1, nil, ttl),
	}
}

func (c *CachedProductCatalog) List(ctx context.Context) ([]*entities.Product, error) {
	if products, ok := c.products.Get(productsKey); ok {
		return products, nil
	}

	v, err, _ := c.group.Do(productsKey, func() (any, error) {
		products, err := c.upstream.List(ctx)
		if err != nil {
			return nil, err
		}
		c.products.Add(productsKey, products)
		log.Debug().Int("count", len(products)).Msg("Catalog cache refreshed")
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*entities.Product), nil
}

func (c *CachedProductCatalog) ListShopifyProducts(ctx context.Context) ([]*entities.ShopifyProduct, error) {
	if listings, ok := c.listings.Get(listingsKey); ok {
		return listings, nil
	}

	v, err, _ := c.group.Do(listingsKey, func() (any, error) {
		listings, err := c.upstream.ListShopifyProducts(ctx)
		if err != nil {
			return nil, err
		}
		c.listings.Add(listingsKey, listings)
		log.Debug().Int("count", len(listings)).Msg("Shopify listing cache refreshed")
		return listings, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*entities.ShopifyProduct), nil
}
