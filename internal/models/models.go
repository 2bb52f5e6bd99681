package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/hash"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"       json:"id"`
	Name         string     `gorm:"not null"                   json:"name"`
	Email        string     `gorm:"uniqueIndex;not null"       json:"email"`
	PasswordHash string     `gorm:"not null"                   json:"-"`
	Role         Role       `gorm:"not null;default:user"      json:"role"`
	CartItems    []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	// Password is the plaintext set by callers; it is never persisted.
	// Saving a user with a non-empty Password replaces PasswordHash.
	Password string `gorm:"-" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Password == "" {
		return nil
	}
	h, err := hash.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.PasswordHash = h
	u.Password = ""
	return nil
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserSummary is the only user shape that leaves the server.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

type CartItem struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"          json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"          json:"productId"`
	Quantity  int       `gorm:"not null;check:quantity >= 1"  json:"quantity"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE"   json:"product,omitempty"`
}

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Name        string    `gorm:"not null"              json:"name"`
	Description string    `gorm:"not null"              json:"description"`
	Price       float64   `gorm:"not null"              json:"price"`
	Image       string    `json:"image"`
	ImageKey    string    `json:"-"`
	Category    string    `gorm:"index;not null"        json:"category"`
	IsFeatured  bool      `gorm:"index;not null"        json:"isFeatured"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Coupon struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"                   json:"id"`
	Code           string    `gorm:"uniqueIndex;not null"                   json:"code"`
	Discount       int       `gorm:"not null;check:discount BETWEEN 0 AND 100" json:"discount"`
	ExpirationDate time.Time `gorm:"not null"                               json:"expirationDate"`
	IsActive       bool      `gorm:"not null"                               json:"isActive"`
	UserID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"         json:"userId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (c *Coupon) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// All lists every model for AutoMigrate, parents first.
func All() []any {
	return []any{&User{}, &Product{}, &CartItem{}, &Coupon{}}
}
