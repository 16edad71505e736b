// DAO для работы с формами.
//
// Основные возможности:
//   - Модель формы с jsonb-страницами и картой файлов.
//   - Санация пользовательских строк перед сохранением.
//   - Контроль непустых ключей хранилища на записи.
package dao

import (
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/dto"
	policy "github.com/aisa-it/aiform/aiform.go/internal/aiform/redactor-policy"
	"github.com/aisa-it/aiform/aiform.go/internal/aiform/types"
)

// ErrEmptyFileKey запись карты файлов без ключа хранилища не может быть сохранена.
var ErrEmptyFileKey = errors.New("file entry with empty storage key")

// Формы
type Form struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:text" json:"id"`

	Name        string `json:"name"`
	Description string `json:"description"`

	OwnerID uuid.UUID `json:"owner_id" gorm:"type:text;index"`
	Owner   *User     `json:"-" gorm:"foreignKey:OwnerID" extensions:"x-nullable"`

	Pages types.PagesSlice `json:"pages" gorm:"type:jsonb"`
	Files types.FileMap    `json:"files" gorm:"type:jsonb"`

	Tags pq.StringArray `json:"tags" gorm:"type:text[]"`

	StartedAt   *time.Time `json:"started_at" extensions:"x-nullable"`
	CompletedAt *time.Time `json:"completed_at" extensions:"x-nullable"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Form) TableName() string { return "forms" }

func (f *Form) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = GenUUID()
	}
	return nil
}

func (f *Form) BeforeSave(tx *gorm.DB) error {
	f.Name = policy.StripTagsPolicy.Sanitize(f.Name)
	f.Description = policy.UgcPolicy.Sanitize(f.Description)

	for _, ref := range f.Files {
		if ref.Key == "" {
			return ErrEmptyFileKey
		}
	}
	return nil
}

func (f *Form) ToLightDTO() *dto.FormLight {
	if f == nil {
		return nil
	}
	return &dto.FormLight{
		ID:        f.ID,
		Name:      f.Name,
		OwnerID:   f.OwnerID,
		Tags:      f.Tags,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func (f *Form) ToDTO() *dto.Form {
	if f == nil {
		return nil
	}
	return &dto.Form{
		FormLight:   *f.ToLightDTO(),
		Description: f.Description,
		Pages:       f.Pages,
		Files:       f.Files,
		StartedAt:   f.StartedAt,
		CompletedAt: f.CompletedAt,
		Owner:       f.Owner.ToLightDTO(),
	}
}
