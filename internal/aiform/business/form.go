package business

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/dao"
	filestorage "github.com/aisa-it/aiform/aiform.go/internal/aiform/file-storage"
	"github.com/aisa-it/aiform/aiform.go/internal/aiform/types"
)

var (
	ErrInvalidSignature = errors.New("signature is not valid base64 image data")
	ErrUploadFailed     = errors.New("failed to store uploaded file")
)

// SubmitForm параметры отправки формы. Страницы уже разобраны и проверены на уровне API.
type SubmitForm struct {
	Name        string
	Description string
	Pages       types.PagesSlice
	Tags        []string

	// Подпись в base64, допускается data-URL префикс.
	Signature string

	StartedAt   *time.Time
	CompletedAt *time.Time
}

// UpdateForm параметры частичного обновления формы. Nil-поля не трогаются.
type UpdateForm struct {
	Name        *string
	Description *string
	Pages       *types.PagesSlice
	Tags        []string
	CompletedAt *time.Time
}

// CreateForm загружает подпись и вложения в хранилище и сохраняет форму.
// Загруженные блобы при ошибке записи документа не откатываются, их подбирает
// фоновая чистка.
func (b *Business) CreateForm(user *dao.User, req SubmitForm, attachments map[string][]*multipart.FileHeader) (*dao.Form, error) {
	files := types.FileMap{}

	if req.Signature != "" {
		data, err := decodeSignature(req.Signature)
		if err != nil {
			return nil, ErrInvalidSignature
		}

		key := fmt.Sprintf("signatures/%d_signature.png", time.Now().UnixMilli())
		if err := b.storage.Save(data, key, "image/png", &filestorage.Metadata{UserId: user.ID.String()}); err != nil {
			slog.Error("Save signature", "key", key, "err", err)
			return nil, ErrUploadFailed
		}
		files[types.SignatureKey] = types.FileRef{
			URL:      b.FileURL(key),
			Key:      key,
			Mimetype: "image/png",
		}
	}

	for field, headers := range attachments {
		for _, fh := range headers {
			ref, err := b.uploadAttachment(user, fh)
			if err != nil {
				return nil, err
			}
			files[field] = *ref
		}
	}

	form := dao.Form{
		ID:          dao.GenUUID(),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     user.ID,
		Pages:       req.Pages,
		Files:       files,
		Tags:        req.Tags,
		StartedAt:   req.StartedAt,
		CompletedAt: req.CompletedAt,
	}

	if err := b.db.Create(&form).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

// EditForm применяет частичное обновление. Новые вложения ключуются по
// санированному имени файла, совпадение ключа перезаписывает запись. Старый
// блоб освобождается без гарантий и только после успешной записи документа,
// чтобы не оставить в сохраненной форме ссылку на удаленный объект.
func (b *Business) EditForm(form *dao.Form, user *dao.User, req UpdateForm, attachments map[string][]*multipart.FileHeader) error {
	if req.Name != nil {
		form.Name = *req.Name
	}
	if req.Description != nil {
		form.Description = *req.Description
	}
	if req.Pages != nil {
		form.Pages = *req.Pages
	}
	if req.Tags != nil {
		form.Tags = req.Tags
	}
	if req.CompletedAt != nil {
		form.CompletedAt = req.CompletedAt
	}

	if form.Files == nil {
		form.Files = types.FileMap{}
	}

	var replaced []string
	for _, headers := range attachments {
		for _, fh := range headers {
			ref, err := b.uploadAttachment(user, fh)
			if err != nil {
				return err
			}

			mapKey := strings.ReplaceAll(fh.Filename, ".", "_")
			if old, ok := form.Files[mapKey]; ok && old.Key != ref.Key {
				replaced = append(replaced, old.Key)
			}
			form.Files[mapKey] = *ref
		}
	}

	if err := b.db.Save(form).Error; err != nil {
		return err
	}

	for _, key := range replaced {
		if err := b.storage.Delete(key); err != nil {
			slog.Error("Release replaced file", "key", key, "err", err)
		}
	}
	return nil
}

// DeleteForm удаляет блобы формы и саму запись. Блобы удаляются параллельно и
// без гарантий: ошибка удаления отдельного объекта логируется, документ
// удаляется в любом случае.
func (b *Business) DeleteForm(form *dao.Form) error {
	var g errgroup.Group
	g.SetLimit(4)

	for _, ref := range form.Files {
		key := ref.Key
		g.Go(func() error {
			if err := b.storage.Delete(key); err != nil {
				slog.Error("Delete form file", "formId", form.ID, "key", key, "err", err)
			}
			return nil
		})
	}
	g.Wait()

	return b.db.Delete(form).Error
}

// FindOwnedFile ищет ключ хранилища среди файлов форм пользователя.
// Возвращает ссылку на файл или nil, если ключ пользователю не принадлежит.
func (b *Business) FindOwnedFile(userID uuid.UUID, key string) (*types.FileRef, error) {
	var forms []dao.Form
	if err := b.db.Select("files").Where("owner_id = ?", userID).Find(&forms).Error; err != nil {
		return nil, err
	}

	for _, form := range forms {
		for _, ref := range form.Files {
			if ref.Key == key {
				return &ref, nil
			}
		}
	}
	return nil, nil
}

// OpenFile открывает файл в хранилище для стриминга клиенту.
func (b *Business) OpenFile(ref *types.FileRef) (io.ReadCloser, string, error) {
	r, err := b.storage.LoadReader(ref.Key)
	if err != nil {
		return nil, "", err
	}
	contentType := ref.Mimetype
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return r, contentType, nil
}

func (b *Business) uploadAttachment(user *dao.User, fh *multipart.FileHeader) (*types.FileRef, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, ErrUploadFailed
	}
	defer src.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("uploads/%d_%s", time.Now().UnixMilli(), fh.Filename)
	if err := b.storage.SaveReader(src, fh.Size, key, contentType, &filestorage.Metadata{UserId: user.ID.String()}); err != nil {
		slog.Error("Save attachment", "key", key, "err", err)
		return nil, ErrUploadFailed
	}

	return &types.FileRef{
		URL:      b.FileURL(key),
		Key:      key,
		Mimetype: contentType,
	}, nil
}

func decodeSignature(signature string) ([]byte, error) {
	if strings.HasPrefix(signature, "data:") {
		idx := strings.Index(signature, ",")
		if idx == -1 {
			return nil, ErrInvalidSignature
		}
		signature = signature[idx+1:]
	}
	return base64.StdEncoding.DecodeString(signature)
}
