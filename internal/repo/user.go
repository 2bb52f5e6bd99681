package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/hash"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/models"
)

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// CreateUser inserts u; the save hook hashes u.Password.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// DeleteUser removes the user and, through the cascade, their cart lines.
func (r *GormRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) SaveUser(ctx context.Context, u *models.User) error {
	if err := r.DB.WithContext(ctx).Save(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// ComparePassword reports whether plain matches the stored hash. A corrupt
// hash surfaces as ErrPasswordCompare rather than a library error.
func (r *GormRepo) ComparePassword(u *models.User, plain string) (bool, error) {
	ok, err := hash.CheckPassword(u.PasswordHash, plain)
	if err != nil {
		if errors.Is(err, hash.ErrCompare) {
			return false, ErrPasswordCompare
		}
		return false, errors.Join(ErrPasswordCompare, err)
	}
	return ok, nil
}
