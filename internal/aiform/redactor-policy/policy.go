// Политики очистки пользовательского контента. Применяются к названиям и описаниям форм перед сохранением, чтобы предотвратить XSS.
//
// Основные возможности:
//   - Полное удаление разметки из коротких строк (названия форм).
//   - Ограниченный UGC-набор тегов для описаний.
package policy

import (
	"github.com/microcosm-cc/bluemonday"
)

var StripTagsPolicy *bluemonday.Policy = bluemonday.StrictPolicy()
var UgcPolicy *bluemonday.Policy = bluemonday.UGCPolicy()
