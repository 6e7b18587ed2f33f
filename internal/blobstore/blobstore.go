// Пакет blobstore — шлюз к blob-хранилищу аудиофайлов.
// Байты трека сохраняются под сгенерированным ключом, наружу
// возвращается долговременная ссылка (URL + внутренний ключ).
package blobstore

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Reference — долговременная ссылка на сохранённый объект.
type Reference struct {
	// URL — публичный URL объекта
	URL string
	// Key — внутренний ключ объекта в хранилище
	Key string
}

// Store — интерфейс blob-хранилища.
type Store interface {
	// Put сохраняет size байт из body под ключом key и возвращает ссылку.
	Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) (Reference, error)
}

// whitespaceRun — последовательность пробельных символов в имени файла.
var whitespaceRun = regexp.MustCompile(`\s+`)

// ObjectKey строит ключ объекта для загруженного трека:
// tracks/<artistID>/<timestampMillis>-<имя файла>.
// Имя файла приводится к безопасному виду: пробелы заменяются дефисами,
// разделители путей и ".." отбрасываются.
func ObjectKey(artistID string, timestampMillis int64, originalFilename string) string {
	name := whitespaceRun.ReplaceAllString(originalFilename, "-")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	name = strings.ReplaceAll(name, "..", "")
	return fmt.Sprintf("tracks/%s/%d-%s", artistID, timestampMillis, name)
}
