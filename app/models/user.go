package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER       = "user"
	ROLE_ADMIN      = "admin"
	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

// Subscription status values mirrored from the billing provider.
const (
	SubscriptionNone     = "none"
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// SignupTrialCredits is the free allowance granted once at account creation.
const SignupTrialCredits = 3

type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email              string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password           string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role               string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Status             string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	TrialRemaining     int            `gorm:"not null;default:0" json:"trial_remaining"`
	TrialUsed          int            `gorm:"not null;default:0" json:"trial_used"`
	TokenBalance       int            `gorm:"not null;default:0" json:"token_balance"`
	SubscriptionStatus string         `gorm:"type:varchar(20);not null;default:'none'" json:"subscription_status" validate:"oneof=none active past_due canceled"`
	SubscriptionTier   string         `gorm:"type:varchar(50);default:''" json:"subscription_tier,omitempty"`
	LastLoginAt        *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(username string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:               username,
		Email:              email,
		Password:           pw,
		Role:               ROLE_USER,
		Status:             STATUS_ACTIVE,
		SubscriptionStatus: SubscriptionNone,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// HasActiveSubscription reports whether the user currently holds an
// entitling subscription. Only "active" entitles; past_due and canceled
// fall through to trial/token credits.
func (u *User) HasActiveSubscription() bool {
	return u.SubscriptionStatus == SubscriptionActive
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// FindUserByID finds a user by primary key.
func FindUserByID(db *gorm.DB, id uint) (*User, error) {
	var user User
	result := db.First(&user, id)
	return &user, result.Error
}

// FindUserByEmail finds a user by email address.
func FindUserByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	result := db.Where("email = ?", email).First(&user)
	return &user, result.Error
}
