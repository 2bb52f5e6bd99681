package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/cache"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/events"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/metrics"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/models"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/storage"
)

func (f *fixture) products(images storage.ObjectStore) *ProductService {
	return &ProductService{
		Repo:    f.repo,
		Cache:   cache.NewJSON(f.rdb),
		Images:  images,
		Events:  f.events,
		Metrics: f.metrics,
	}
}

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG fake"))
}

func mustCreate(t *testing.T, s *ProductService, name, category string) *models.Product {
	t.Helper()
	p, err := s.Create(context.Background(), CreateProductInput{Name: name, Description: "d", Price: 5, Category: category})
	require.NoError(t, err)
	return p
}

func TestProduct_CreateWithImage(t *testing.T) {
	f := newFixture(t)
	images := newMemoryImages()
	s := f.products(images)

	p, err := s.Create(context.Background(), CreateProductInput{
		Name: "Jeans", Description: "blue", Price: 49.5, Category: "jeans", Image: pngDataURL(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ImageKey)
	assert.Equal(t, "http://images.test/"+p.ImageKey, p.Image)
	assert.Equal(t, []byte("\x89PNG fake"), images.objects[p.ImageKey])
	assert.Equal(t, []string{events.ProductCreated}, f.events.types())
}

func TestProduct_CreateValidation(t *testing.T) {
	f := newFixture(t)
	s := f.products(newMemoryImages())
	ctx := context.Background()

	_, err := s.Create(ctx, CreateProductInput{Name: "", Description: "d", Category: "c"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Create(ctx, CreateProductInput{Name: "n", Description: "d", Category: "c", Price: -1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Create(ctx, CreateProductInput{Name: "n", Description: "d", Category: "c", Image: "http://x/y.png"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.products(storage.Disabled{}).Create(ctx, CreateProductInput{Name: "n", Description: "d", Category: "c", Image: pngDataURL()})
	assert.ErrorIs(t, err, storage.ErrDisabled)

	total, _, err := f.repo.ListProducts(ctx, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestProduct_FeaturedCache(t *testing.T) {
	f := newFixture(t)
	s := f.products(newMemoryImages())
	ctx := context.Background()
	p := mustCreate(t, s, "Shoes", "shoes")

	items, err := s.Featured(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, f.metrics.cache[metrics.CacheMiss])
	assert.True(t, f.mr.Exists(FeaturedCacheKey))

	_, err = s.Featured(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.metrics.cache[metrics.CacheHit])

	toggled, err := s.ToggleFeatured(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsFeatured)

	items, err = s.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, p.ID, items[0].ID)
	assert.Equal(t, 2, f.metrics.cache[metrics.CacheHit])

	require.NoError(t, s.Delete(ctx, p.ID))
	assert.False(t, f.mr.Exists(FeaturedCacheKey))

	items, err = s.Featured(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestProduct_FeaturedCacheDown(t *testing.T) {
	f := newFixture(t)
	s := f.products(newMemoryImages())
	ctx := context.Background()
	p := mustCreate(t, s, "Shoes", "shoes")
	_, err := f.repo.ToggleFeatured(ctx, p.ID)
	require.NoError(t, err)

	f.mr.Close()

	items, err := s.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, f.metrics.cache[metrics.CacheError])
}

func TestProduct_Delete(t *testing.T) {
	f := newFixture(t)
	images := newMemoryImages()
	s := f.products(images)
	ctx := context.Background()

	p, err := s.Create(ctx, CreateProductInput{Name: "Tee", Description: "d", Category: "t-shirts", Image: pngDataURL()})
	require.NoError(t, err)
	require.Len(t, images.objects, 1)

	require.NoError(t, s.Delete(ctx, p.ID))
	assert.Empty(t, images.objects)
	assert.ErrorIs(t, s.Delete(ctx, p.ID), ErrNotFound)

	_, err = s.ToggleFeatured(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProduct_Listings(t *testing.T) {
	f := newFixture(t)
	s := f.products(newMemoryImages())
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		mustCreate(t, s, name, "jeans")
	}
	mustCreate(t, s, "hat", "hats")

	all, err := s.List(ctx, 0, 0, false)
	require.NoError(t, err)
	assert.Len(t, all.Items, 6)
	assert.Nil(t, all.Meta)

	page, err := s.List(ctx, 2, 4, true)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	require.NotNil(t, page.Meta)
	assert.EqualValues(t, 6, page.Meta.Total)
	assert.EqualValues(t, 2, page.Meta.TotalPages)
	assert.False(t, page.Meta.HasNext)

	rec, err := s.Recommendations(ctx)
	require.NoError(t, err)
	assert.Len(t, rec, 4)

	jeans, err := s.ByCategory(ctx, "jeans")
	require.NoError(t, err)
	assert.Len(t, jeans, 5)

	_, err = s.ByCategory(ctx, "suits")
	assert.ErrorIs(t, err, ErrNotFound)
}
