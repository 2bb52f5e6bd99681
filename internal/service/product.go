package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/cache"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/events"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/logging"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/metrics"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/models"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/repo"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/storage"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/util"
)

const (
	FeaturedCacheKey    = "featured_products"
	recommendationCount = 4
)

type ProductStore interface {
	ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error)
	FeaturedProducts(ctx context.Context) ([]models.Product, error)
	RandomProducts(ctx context.Context, n int) ([]models.Product, error)
	ProductsByCategory(ctx context.Context, category string) ([]models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ToggleFeatured(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type FeaturedCache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type ProductService struct {
	Repo    ProductStore
	Cache   FeaturedCache
	Images  storage.ObjectStore
	Events  events.Publisher
	Metrics metrics.Recorder
}

type ProductPage struct {
	Items []models.Product
	Meta  *util.PageMeta
}

// List returns every product, or one page when paginate is set.
func (s *ProductService) List(ctx context.Context, page, size int, paginate bool) (*ProductPage, error) {
	if !paginate {
		_, items, err := s.Repo.ListProducts(ctx, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		return &ProductPage{Items: items}, nil
	}

	p := util.NewPage(page, size)
	total, items, err := s.Repo.ListProducts(ctx, p.Offset, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	meta := p.Meta(total)
	return &ProductPage{Items: items, Meta: &meta}, nil
}

// Featured serves from the cache and fills it on a miss. Cache trouble only costs a query.
func (s *ProductService) Featured(ctx context.Context) ([]models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "product.featured")

	var cached []models.Product
	err := s.Cache.Get(ctx, FeaturedCacheKey, &cached)
	switch {
	case err == nil:
		s.Metrics.FeaturedCache(metrics.CacheHit)
		return cached, nil
	case errors.Is(err, cache.ErrMiss):
		s.Metrics.FeaturedCache(metrics.CacheMiss)
	default:
		s.Metrics.FeaturedCache(metrics.CacheError)
		l.Warn("featured_cache_read_failed", "error", err)
	}

	return s.refreshFeaturedCache(ctx)
}

func (s *ProductService) refreshFeaturedCache(ctx context.Context) ([]models.Product, error) {
	items, err := s.Repo.FeaturedProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("featured products: %w", err)
	}
	if err := s.Cache.Set(ctx, FeaturedCacheKey, items, 0); err != nil {
		logging.FromContext(ctx).Warn("featured_cache_write_failed", "error", err)
	}
	return items, nil
}

func (s *ProductService) Recommendations(ctx context.Context) ([]models.Product, error) {
	items, err := s.Repo.RandomProducts(ctx, recommendationCount)
	if err != nil {
		return nil, fmt.Errorf("recommended products: %w", err)
	}
	return items, nil
}

func (s *ProductService) ByCategory(ctx context.Context, category string) ([]models.Product, error) {
	items, err := s.Repo.ProductsByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("products by category: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items, nil
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
	Image       string
	Category    string
}

func (in *CreateProductInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" || in.Description == "" || in.Category == "" {
		return validation("name, description and category are required")
	}
	if in.Price < 0 {
		return validation("price cannot be negative")
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "product.create")

	if err := in.validate(); err != nil {
		l.Warn("create_product_failed", "status", 400, "reason", err.Error())
		return nil, err
	}

	product := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
	}

	if in.Image != "" {
		img, err := storage.DecodeDataURL(in.Image)
		if err != nil {
			l.Warn("create_product_failed", "status", 400, "reason", "bad image")
			return nil, validation(err.Error())
		}
		key := storage.ProductKey(img.Ext)
		url, err := s.Images.Upload(ctx, key, img.ContentType, img.Data)
		if err != nil {
			l.Error("create_product_failed", "status", 500, "reason", "cannot upload image", "error", err)
			return nil, fmt.Errorf("upload image: %w", err)
		}
		product.Image = url
		product.ImageKey = key
	}

	if err := s.Repo.CreateProduct(ctx, product); err != nil {
		l.Error("create_product_failed", "status", 500, "error", err)
		if product.ImageKey != "" {
			if derr := s.Images.Delete(ctx, product.ImageKey); derr != nil {
				l.Warn("orphan_image_delete_failed", "key", product.ImageKey, "error", derr)
			}
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.publish(ctx, product.ID.String(), events.New(events.ProductCreated, product.ID.String(), product))
	l.Info("create_product_success", "product_id", product.ID)
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "product.delete", "product_id", id)

	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get product: %w", err)
	}

	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}

	if err := s.Images.Delete(ctx, product.ImageKey); err != nil {
		l.Warn("image_delete_failed", "key", product.ImageKey, "error", err)
	}
	if err := s.Cache.Delete(ctx, FeaturedCacheKey); err != nil {
		l.Warn("featured_cache_delete_failed", "error", err)
	}

	s.publish(ctx, id.String(), events.New(events.ProductDeleted, id.String(), nil))
	l.Info("delete_product_success")
	return nil
}

func (s *ProductService) ToggleFeatured(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "product.toggle_featured", "product_id", id)

	product, err := s.Repo.ToggleFeatured(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("toggle featured: %w", err)
	}

	if _, err := s.refreshFeaturedCache(ctx); err != nil {
		l.Warn("featured_cache_rebuild_failed", "error", err)
	}

	s.publish(ctx, id.String(), events.New(events.ProductFeaturedToggled, id.String(), map[string]bool{"isFeatured": product.IsFeatured}))
	l.Info("toggle_featured_success", "is_featured", product.IsFeatured)
	return product, nil
}

func (s *ProductService) publish(ctx context.Context, key string, ev events.Event) {
	if err := s.Events.Publish(ctx, events.TopicProduct, key, ev); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", events.TopicProduct, "type", ev.Type, "error", err)
	}
}
