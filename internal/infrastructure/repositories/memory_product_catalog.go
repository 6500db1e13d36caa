package repositories

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/entities"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
	domainrepos "github.com/lakarijeprvovencani/tl-tryon/internal/domain/repositories"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// MemoryProductCatalog serves a fixed product list in insertion order.
type MemoryProductCatalog struct {
	products []*entities.Product
	byID     map[string]*entities.Product
}

func NewMemoryProductCatalog(products []*entities.Product) (*MemoryProductCatalog, error) {
	c := &MemoryProductCatalog{
		byID: make(map[string]*entities.Product, len(products)),
	}

	for i, p := range products {
		if p == nil || p.ID == "" {
			return nil, fmt.Errorf("product %d has no id", i)
		}
		if _, exists := c.byID[p.ID]; exists {
			return nil, fmt.Errorf("duplicate product id: %s", p.ID)
		}
		c.byID[p.ID] = p
		c.products = append(c.products, p)
	}

	return c, nil
}

// LoadMemoryProductCatalog reads a YAML product list from path, or the
// embedded default catalog when path is empty.
func LoadMemoryProductCatalog(path string) (*MemoryProductCatalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file: %w", err)
		}
	}

	var products []*entities.Product
	if err := yaml.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	return NewMemoryProductCatalog(products)
}

var _ domainrepos.ProductCatalog = (*MemoryProductCatalog)(nil)

func (c *MemoryProductCatalog) List(ctx context.Context) ([]*entities.Product, error) {
	// 呼び出し側の変更がカタログに影響しないようにコピーを返す
	products := make([]*entities.Product, 0, len(c.products))
	for _, p := range c.products {
		clone := *p
		products = append(products, &clone)
	}
	return products, nil
}

var _ domainrepos.ProductLookup = (*MemoryProductCatalog)(nil)

func (c *MemoryProductCatalog) FindByID(ctx context.Context, id string) (*entities.Product, error) {
	product, exists := c.byID[id]
	if !exists {
		return nil, errs.Validation("unknown product: %s", id)
	}

	clone := *product
	return &clone, nil
}
