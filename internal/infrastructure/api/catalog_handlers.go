package api

import (
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/lakarijeprvovencani/tl-tryon/internal/application/usecases"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/entities"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
)

type CatalogHandler struct {
	catalogUseCase *usecases.CatalogUseCase
}

func NewCatalogHandler(catalogUseCase *usecases.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{
		catalogUseCase: catalogUseCase,
	}
}

type ProductsResponse struct {
	Data []*entities.Product `json:"data"`
}

type ShopifyProductsResponse struct {
	Products []*entities.ShopifyProduct `json:"products"`
	Count    int                        `json:"count"`
	Source   string                     `json:"source"`
}

func (h *CatalogHandler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogUseCase.ListProducts(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to list products")
		sendError(w, r, http.StatusInternalServerError, "Failed to fetch products", errs.DetailsOf(err))
		return
	}

	if products == nil {
		products = []*entities.Product{}
	}
	writeJSON(w, r, http.StatusOK, ProductsResponse{Data: products})
}

func (h *CatalogHandler) HandleShopifyProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogUseCase.ListShopifyProducts(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("kind", string(errs.KindOf(err))).Msg("Shopify API error")
		sendError(w, r, http.StatusInternalServerError, "Failed to fetch Shopify products", errs.DetailsOf(err))
		return
	}

	if products == nil {
		products = []*entities.ShopifyProduct{}
	}
	writeJSON(w, r, http.StatusOK, ShopifyProductsResponse{
		Products: products,
		Count:    len(products),
		Source:   "shopify",
	})
}
