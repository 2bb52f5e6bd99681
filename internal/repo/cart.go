package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/models"
)

func (r *GormRepo) CartItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	items := []models.CartItem{}
	if err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("product_id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart increments the quantity of productID, creating the line if needed.
func (r *GormRepo) AddToCart(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	item := models.CartItem{UserID: userID, ProductID: productID, Quantity: 1}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}

		res := tx.Model(&models.CartItem{}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			Update("quantity", gorm.Expr("quantity + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SetCartQuantity sets the quantity of an existing line; zero removes it.
func (r *GormRepo) SetCartQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	db := r.DB.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID)

	var res *gorm.DB
	if quantity == 0 {
		res = db.Delete(&models.CartItem{})
	} else {
		res = db.Model(&models.CartItem{}).Update("quantity", quantity)
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveFromCart deletes one line, or the whole cart when productID is nil.
func (r *GormRepo) RemoveFromCart(ctx context.Context, userID uuid.UUID, productID *uuid.UUID) error {
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if productID != nil {
		q = q.Where("product_id = ?", *productID)
	}
	return q.Delete(&models.CartItem{}).Error
}
