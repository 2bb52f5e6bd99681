package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/logging"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/models"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/repo"
)

type CouponStore interface {
	ActiveCoupon(ctx context.Context, userID uuid.UUID) (*models.Coupon, error)
	ActiveCouponByCode(ctx context.Context, userID uuid.UUID, code string) (*models.Coupon, error)
	DeactivateCoupon(ctx context.Context, id uuid.UUID) error
}

type CouponService struct {
	Repo CouponStore
	Now  func() time.Time
}

func (s *CouponService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *CouponService) Active(ctx context.Context, userID uuid.UUID) (*models.Coupon, error) {
	c, err := s.Repo.ActiveCoupon(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("active coupon: %w", err)
	}
	return c, nil
}

// Validate checks code against the caller's active coupon. An expired coupon
// is deactivated on first sight.
func (s *CouponService) Validate(ctx context.Context, userID uuid.UUID, code string) (*models.Coupon, error) {
	l := logging.FromContext(ctx).With("svc", "coupon.validate", "user_id", userID)

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, validation("code is required")
	}

	c, err := s.Repo.ActiveCouponByCode(ctx, userID, code)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Info("validate_coupon_failed", "status", 404, "reason", "coupon not found")
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}

	if !s.now().Before(c.ExpirationDate) {
		if err := s.Repo.DeactivateCoupon(ctx, c.ID); err != nil {
			return nil, fmt.Errorf("deactivate coupon: %w", err)
		}
		l.Info("validate_coupon_failed", "status", 404, "reason", "coupon expired")
		return nil, ErrCouponExpired
	}

	return c, nil
}
