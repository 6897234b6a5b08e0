package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:user"    json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:100;not null"        json:"name"`
	Description string    `gorm:"size:1000;not null"       json:"description"`
	Category    string    `gorm:"not null;index"           json:"category"`
	Price       float64   `gorm:"not null"                 json:"price"`
	Rating      float64   `gorm:"default:0"                json:"rating"`
	Image       string    `gorm:"not null"                 json:"image"`
	Stock       uint      `gorm:"default:0"                json:"stock"`
	NumReviews  uint      `gorm:"default:0"                json:"numReviews"`
	UserID      *uint     `gorm:"index"                    json:"user,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Categories is the closed set a product must belong to.
var Categories = []string{"electronics", "clothing", "books", "home", "other"}

func ValidCategory(category string) bool {
	for _, c := range Categories {
		if category == c {
			return true
		}
	}
	return false
}

type CartItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement"                            json:"id"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_cart_user_product"          json:"user_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_user_product"          json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"                          json:"quantity"`
}
