package repositories

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/entities"
)

type countingUpstream struct {
	listCalls    int32
	listingCalls int32
	fail         atomic.Bool
	delay        time.Duration
}

func (u *countingUpstream) List(ctx context.Context) ([]*entities.Product, error) {
	atomic.AddInt32(&u.listCalls, 1)
	time.Sleep(u.delay)
	if u.fail.Load() {
		return nil, errors.New("upstream down")
	}
	return []*entities.Product{{ID: "1", Name: "Tee"}}, nil
}

func (u *countingUpstream) ListShopifyProducts(ctx context.Context) ([]*entities.ShopifyProduct, error) {
	atomic.AddInt32(&u.listingCalls, 1)
	if u.fail.Load() {
		return nil, errors.New("upstream down")
	}
	return []*entities.ShopifyProduct{{ID: 1, Name: "Tee", Price: "$10.00"}}, nil
}

func TestCachedProductCatalog_CachesSuccess(t *testing.T) {
	upstream := &countingUpstream{}
	catalog := NewCachedProductCatalog(upstream, time.Minute)

	for i := 0; i < 3; i++ {
		products, err := catalog.List(context.Background())
		require.NoError(t, err)
		require.Len(t, products, 1)

		listings, err := catalog.ListShopifyProducts(context.Background())
		require.NoError(t, err)
		require.Len(t, listings, 1)
	}

	assert.EqualValues(t, 1, atomic.LoadInt32(&upstream.listCalls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&upstream.listingCalls))
}

func TestCachedProductCatalog_DoesNotCacheErrors(t *testing.T) {
	upstream := &countingUpstream{}
	upstream.fail.Store(true)
	catalog := NewCachedProductCatalog(upstream, time.Minute)

	_, err := catalog.ListShopifyProducts(context.Background())
	require.Error(t, err)

	upstream.fail.Store(false)
	listings, err := catalog.ListShopifyProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, listings, 1)
	assert.EqualValues(t, 2, atomic.LoadInt32(&upstream.listingCalls))
}

func TestCachedProductCatalog_Expires(t *testing.T) {
	upstream := &countingUpstream{}
	catalog := NewCachedProductCatalog(upstream, 20*time.Millisecond)

	_, err := catalog.List(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := catalog.List(context.Background())
		return err == nil && atomic.LoadInt32(&upstream.listCalls) >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestCachedProductCatalog_SharesConcurrentMisses(t *testing.T) {
	upstream := &countingUpstream{delay: 50 * time.Millisecond}
	catalog := NewCachedProductCatalog(upstream, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := catalog.List(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&upstream.listCalls), int32(2))
}
