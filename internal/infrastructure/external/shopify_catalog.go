package external

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/entities"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
	"github.com/lakarijeprvovencani/tl-tryon/model"
)

const (
	DefaultShopifyDomain     = "tialorens.myshopify.com"
	DefaultShopifyAPIVersion = "2023-10"

	placeholderImage      = "/placeholder.jpg"
	priceNotAvailable     = "Price not available"
	shopifyRequestTimeout = 15 * time.Second
)

type ShopifyOptions struct {
	Domain      string
	AccessToken string
	APIVersion  string
	// BaseURL overrides https://{Domain}.
	BaseURL string
}

// ShopifyProductCatalog reads products from the Shopify Admin API.
type ShopifyProductCatalog struct {
	httpClient  *resty.Client
	domain      string
	accessToken string
	apiVersion  string
	sanitizer   *bluemonday.Policy
}

func NewShopifyProductCatalog(opts ShopifyOptions) *ShopifyProductCatalog {
	c := &ShopifyProductCatalog{
		domain:      DefaultShopifyDomain,
		accessToken: opts.AccessToken,
		apiVersion:  DefaultShopifyAPIVersion,
		sanitizer:   bluemonday.StrictPolicy(),
	}
	if opts.Domain != "" {
		c.domain = opts.Domain
	}
	if opts.APIVersion != "" {
		c.apiVersion = opts.APIVersion
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://" + c.domain
	}

	c.httpClient = resty.New().
		SetDebug(false).
		SetBaseURL(baseURL).
		SetTimeout(shopifyRequestTimeout).
		SetHeaders(
			map[string]string{
				"Accept":       "application/json",
				"Content-Type": "application/json",
			},
		)

	return c
}

func (c *ShopifyProductCatalog) fetch(ctx context.Context) ([]model.ShopifyProduct, error) {
	if c.accessToken == "" {
		return nil, errs.Configuration("Shopify access token not configured")
	}

	result := &model.ShopifyProductsResponse{}
	_, err := handleError(c.httpClient.
		NewRequest().
		SetContext(ctx).
		SetHeader("X-Shopify-Access-Token", c.accessToken).
		SetResult(result).
		SetError(&model.ShopifyErrorResponse{}).
		SetPathParams(map[string]string{
			"version": c.apiVersion,
		}).
		Get("/admin/api/{version}/products.json"))
	if err != nil {
		return nil, errs.Upstream("Shopify API error", err)
	}

	log.Debug().Int("count", len(result.Products)).Msg("Fetched Shopify products")
	return result.Products, nil
}

// ListShopifyProducts returns the store's products in the listing schema.
func (c *ShopifyProductCatalog) ListShopifyProducts(ctx context.Context) ([]*entities.ShopifyProduct, error) {
	products, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	listed := make([]*entities.ShopifyProduct, 0, len(products))
	for _, p := range products {
		listed = append(listed, c.toListing(p))
	}
	return listed, nil
}

// List exposes the store through the generic catalog so try-on by product
// ID works against Shopify as well.
func (c *ShopifyProductCatalog) List(ctx context.Context) ([]*entities.Product, error) {
	products, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	catalog := make([]*entities.Product, 0, len(products))
	for _, p := range products {
		catalog = append(catalog, c.toProduct(p))
	}
	return catalog, nil
}

func (c *ShopifyProductCatalog) toListing(p model.ShopifyProduct) *entities.ShopifyProduct {
	price := priceNotAvailable
	if len(p.Variants) > 0 && p.Variants[0].Price != "" {
		price = "$" + p.Variants[0].Price
	}

	return &entities.ShopifyProduct{
		ID:          p.ID,
		Name:        p.Title,
		Price:       price,
		Image:       firstImage(p),
		Description: c.plainText(p.BodyHTML),
		Handle:      p.Handle,
		ShopifyURL:  c.productURL(p.Handle),
	}
}

func (c *ShopifyProductCatalog) toProduct(p model.ShopifyProduct) *entities.Product {
	product := &entities.Product{
		ID:          strconv.FormatInt(p.ID, 10),
		Name:        p.Title,
		Image:       firstImage(p),
		Category:    p.ProductType,
		Description: c.plainText(p.BodyHTML),
	}

	for _, v := range p.Variants {
		// 在庫管理していないバリエーションは常に在庫あり扱い
		if v.InventoryManagement == nil || *v.InventoryManagement == "" || v.InventoryQuantity > 0 {
			product.InStock = true
		}
	}

	if len(p.Variants) == 0 {
		return product
	}

	first := p.Variants[0]
	if price, err := strconv.ParseFloat(first.Price, 64); err == nil {
		product.Price = price
	}
	if first.CompareAtPrice != nil {
		if original, err := strconv.ParseFloat(*first.CompareAtPrice, 64); err == nil && original > product.Price {
			product.OriginalPrice = &original
			product.IsOnSale = true
		}
	}
	return product
}

func (c *ShopifyProductCatalog) plainText(bodyHTML string) string {
	return strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(bodyHTML)))
}

// productURL points at the storefront domain, e.g. tialorens.myshopify.com
// becomes https://tialorens.com/products/{handle}.
func (c *ShopifyProductCatalog) productURL(handle string) string {
	storefront := strings.Replace(c.domain, ".myshopify.com", "", 1)
	return fmt.Sprintf("https://%s.com/products/%s", storefront, handle)
}

func firstImage(p model.ShopifyProduct) string {
	if len(p.Images) > 0 && p.Images[0].Src != "" {
		return p.Images[0].Src
	}
	return placeholderImage
}

// handleError is a generic error handler for failing response (>399 status
// code). Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		if e, ok := res.Error().(*model.ShopifyErrorResponse); ok && e.Errors != nil {
			return res, fmt.Errorf("request failed: %s %s (status: %s): %v", res.Request.Method, res.Request.URL, res.Status(), e.Errors)
		}
		return res, fmt.Errorf("request failed: %s %s (status: %s)", res.Request.Method, res.Request.URL, res.Status())
	}

	return res, nil
}
