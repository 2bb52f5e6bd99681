package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/models"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/repo"
)

type CartStore interface {
	CartItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	AddToCart(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error)
	SetCartQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	RemoveFromCart(ctx context.Context, userID uuid.UUID, productID *uuid.UUID) error
}

type CartService struct {
	Repo CartStore
}

func (s *CartService) Items(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	items, err := s.Repo.CartItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("cart items: %w", err)
	}
	return items, nil
}

func (s *CartService) Add(ctx context.Context, userID, productID uuid.UUID) ([]models.CartItem, error) {
	if _, err := s.Repo.AddToCart(ctx, userID, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	return s.Items(ctx, userID)
}

func (s *CartService) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) ([]models.CartItem, error) {
	if quantity < 0 {
		return nil, validation("quantity cannot be negative")
	}
	if err := s.Repo.SetCartQuantity(ctx, userID, productID, quantity); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update quantity: %w", err)
	}
	return s.Items(ctx, userID)
}

// Remove drops one product, or empties the cart when productID is nil.
func (s *CartService) Remove(ctx context.Context, userID uuid.UUID, productID *uuid.UUID) ([]models.CartItem, error) {
	if err := s.Repo.RemoveFromCart(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("remove from cart: %w", err)
	}
	return s.Items(ctx, userID)
}
