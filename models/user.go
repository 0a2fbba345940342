package models

import (
	"time"

	apiError "github.com/bookswapng/bookswap/errors"
	goval "github.com/go-passwd/validator"
	"github.com/leebenson/conform"
	"golang.org/x/crypto/bcrypt"
)

// User represents a user of the application. The core treats the identifier
// as opaque; display attributes come from the identity provider.
type User struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	Fullname       string    `json:"fullname" conform:"trim" binding:"required,min=2"`
	Username       string    `json:"username" gorm:"unique" conform:"trim" binding:"required,min=2"`
	Email          string    `json:"email" gorm:"unique;not null" conform:"trim,email" binding:"required,email"`
	Password       string    `json:"password,omitempty" gorm:"-"`
	HashedPassword string    `json:"-"`
	ThumbNailURL   string    `json:"thumbnail_url,omitempty"`
	DeviceToken    string    `json:"-"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ValidatePassword enforces the password policy applied at signup.
func ValidatePassword(password string) error {
	passwordValidator := goval.New(
		goval.MinLength(6, apiError.NewValidationError("password must be at least 6 characters")),
		goval.MaxLength(64, apiError.NewValidationError("password must be at most 64 characters")),
	)
	return passwordValidator.Validate(password)
}

// Normalize trims whitespace off the user-supplied fields in place.
func (u *User) Normalize() error {
	return conform.Strings(u)
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.HashedPassword = string(hashed)
	u.Password = ""
	return nil
}

func (u *User) VerifyPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// Blacklist holds revoked access tokens.
type Blacklist struct {
	Model
	Email string `json:"email"`
	Token string `json:"token"`
}
