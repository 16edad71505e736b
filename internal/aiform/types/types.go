// Содержит определения типов данных, используемых при работе с формами: страницы формы, поля страниц, ссылки на загруженные файлы.  Предоставляет методы сериализации и десериализации для хранения в jsonb-колонках.
//
// Основные возможности:
//   - Хранение упорядоченных страниц формы.
//   - Хранение карты загруженных файлов.
//   - Валидация структуры страниц при разборе JSON.
package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// FormField поле страницы формы. Порядок полей в странице сохраняется как есть.
type FormField struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value,omitempty"`
}

type FormFieldsSlice []FormField

// Page страница многостраничной формы.
type Page struct {
	PageID             string          `json:"pageId" validate:"required"`
	PageType           string          `json:"pageType,omitempty"`
	PageName           string          `json:"pageName,omitempty"`
	Fields             FormFieldsSlice `json:"fields,omitempty"`
	ComponentsMetaData json.RawMessage `json:"componentsMetaData,omitempty"`
}

type PagesSlice []Page

func (pages PagesSlice) Value() (driver.Value, error) {
	b, err := json.Marshal(pages)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (pages *PagesSlice) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, pages)
	case string:
		return json.Unmarshal([]byte(v), pages)
	case nil:
		*pages = nil
		return nil
	}
	return fmt.Errorf("failed to unmarshal pages value: %v", value)
}

func (PagesSlice) GormDataType() string {
	return "jsonb"
}

// ParsePages разбирает сырой JSON в срез страниц. Вход обязан быть JSON-массивом,
// любой другой верхний уровень, включая null, считается ошибкой.
func ParsePages(raw []byte) (PagesSlice, error) {
	var pages PagesSlice
	if err := json.Unmarshal(raw, &pages); err != nil {
		return nil, fmt.Errorf("pages must be a JSON array: %w", err)
	}
	if pages == nil {
		return nil, fmt.Errorf("pages must be a JSON array")
	}
	return pages, nil
}

// FileRef ссылка на объект в хранилище файлов.
type FileRef struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Mimetype string `json:"mimetype"`
}

// FileMap карта загруженных файлов формы: имя поля (или санированное имя файла) -> ссылка.
type FileMap map[string]FileRef

// SignatureKey зарезервированный ключ подписи в карте файлов.
const SignatureKey = "signature"

func (files FileMap) Value() (driver.Value, error) {
	if files == nil {
		files = FileMap{}
	}
	b, err := json.Marshal(files)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (files *FileMap) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, files)
	case string:
		return json.Unmarshal([]byte(v), files)
	case nil:
		*files = FileMap{}
		return nil
	}
	return fmt.Errorf("failed to unmarshal files value: %v", value)
}

func (FileMap) GormDataType() string {
	return "jsonb"
}

// HasKey сообщает, ссылается ли карта файлов на указанный ключ хранилища.
func (files FileMap) HasKey(key string) bool {
	for _, ref := range files {
		if ref.Key == key {
			return true
		}
	}
	return false
}

// Keys возвращает все ключи хранилища, на которые ссылается карта.
func (files FileMap) Keys() []string {
	keys := make([]string, 0, len(files))
	for _, ref := range files {
		keys = append(keys, ref.Key)
	}
	return keys
}
