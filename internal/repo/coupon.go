package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/models"
)

func (r *GormRepo) ActiveCoupon(ctx context.Context, userID uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&coupon).Error; err != nil {
		return nil, notFound(err)
	}
	return &coupon, nil
}

// ActiveCouponByCode finds an active coupon owned by userID.
func (r *GormRepo) ActiveCouponByCode(ctx context.Context, userID uuid.UUID, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.DB.WithContext(ctx).
		Where("code = ? AND user_id = ? AND is_active = ?", code, userID, true).
		First(&coupon).Error; err != nil {
		return nil, notFound(err)
	}
	return &coupon, nil
}

func (r *GormRepo) DeactivateCoupon(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Model(&models.Coupon{}).Where("id = ?", id).Update("is_active", false).Error
}

func (r *GormRepo) CreateCoupon(ctx context.Context, c *models.Coupon) error {
	return r.DB.WithContext(ctx).Create(c).Error
}
