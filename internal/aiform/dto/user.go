// DTO (Data Transfer Objects) для передачи данных между слоями приложения.
//
// Основные возможности:
//   - Легкие представления сущностей для списков.
//   - Полные представления для детальных ответов API.
package dto

import (
	"time"

	"github.com/gofrs/uuid"
)

type UserLight struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
}

type User struct {
	UserLight

	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastActive *time.Time `json:"last_active,omitempty" extensions:"x-nullable"`
}
