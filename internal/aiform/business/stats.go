// Содержит бизнес-логику для получения статистики отправок форм.
package business

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/dao"
	"github.com/aisa-it/aiform/aiform.go/internal/aiform/dto"
)

// GetTotalSubmissions возвращает количество форм, отправленных пользователем.
func (b *Business) GetTotalSubmissions(userID uuid.UUID) (*dto.TotalSubmissions, error) {
	var count int64
	if err := b.db.Model(&dao.Form{}).Where("owner_id = ?", userID).Count(&count).Error; err != nil {
		return nil, err
	}
	return &dto.TotalSubmissions{TotalSubmissions: count}, nil
}

// GetAverageCompletionTime возвращает среднее время заполнения форм
// пользователя в секундах. Учитываются только формы с обоими таймстемпами.
func (b *Business) GetAverageCompletionTime(userID uuid.UUID) (*dto.AverageTime, error) {
	var forms []dao.Form
	if err := b.db.Select("started_at", "completed_at").
		Where("owner_id = ?", userID).
		Where("started_at IS NOT NULL").
		Where("completed_at IS NOT NULL").
		Find(&forms).Error; err != nil {
		return nil, err
	}

	var total time.Duration
	for _, form := range forms {
		total += form.CompletedAt.Sub(*form.StartedAt)
	}

	var avg float64
	if len(forms) > 0 {
		avg = total.Seconds() / float64(len(forms))
	}

	return &dto.AverageTime{AverageTime: fmt.Sprintf("%.2f seconds", avg)}, nil
}
