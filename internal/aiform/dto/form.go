package dto

import (
	"time"

	"github.com/gofrs/uuid"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/types"
)

type FormLight struct {
	ID        uuid.UUID `json:"formId"`
	Name      string    `json:"formName"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Form struct {
	FormLight

	Description string           `json:"description,omitempty"`
	Pages       types.PagesSlice `json:"pages"`
	Files       types.FileMap    `json:"files"`

	StartedAt   *time.Time `json:"started_at,omitempty" extensions:"x-nullable"`
	CompletedAt *time.Time `json:"completed_at,omitempty" extensions:"x-nullable"`

	Owner *UserLight `json:"owner,omitempty" extensions:"x-nullable"`
}
