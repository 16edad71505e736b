// DAO для работы с данными пользователей.
//
// Основные возможности:
//   - CRUD операции с пользователями.
//   - Учет попыток входа и блокировок.
//   - Роли user/pro, переключаемые платежным контуром.
package dao

import (
	"database/sql"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/dto"
)

const (
	RoleUser = "user"
	RolePro  = "pro"
)

// Пользователи
type User struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:text" json:"id"`

	Password string `json:"-"`
	Username string `json:"username" gorm:"uniqueIndex"`
	Email    string `json:"email" gorm:"uniqueIndex:,where:email <> ''"`

	Role string `json:"role" gorm:"default:'user'"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	LastActive      *time.Time `json:"last_active" extensions:"x-nullable"`
	LastLoginTime   *time.Time `json:"-" extensions:"x-nullable"`
	LastLoginIp     string     `json:"-"`
	LastLoginUagent string     `json:"-"`
	LoginAttempts   int        `json:"-"`
	BlockedUntil    sql.NullTime
	TokenUpdatedAt  *time.Time `json:"-" extensions:"x-nullable"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = GenUUID()
	}
	return nil
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(u.Email)
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (u User) IsPro() bool {
	return u.Role == RolePro
}

func (u *User) ToLightDTO() *dto.UserLight {
	if u == nil {
		return nil
	}
	return &dto.UserLight{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

func (u *User) ToDTO() *dto.User {
	if u == nil {
		return nil
	}
	return &dto.User{
		UserLight:  *u.ToLightDTO(),
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
		LastActive: u.LastActive,
	}
}
