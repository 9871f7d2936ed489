// Package uploads хранит загруженные картинки на диске и раздает их
// как статические файлы.
package uploads

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxSize максимальный размер загружаемого файла
const DefaultMaxSize = 5 << 20

var (
	// ErrUnsupportedType indicates that file is not an allowed image
	ErrUnsupportedType = errors.New("unsupported image type")

	// ErrTooLarge indicates that file exceeds size limit
	ErrTooLarge = errors.New("file is too large")
)

// allowedTypes сопоставляет MIME тип расширению сохраняемого файла
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store сохраняет файлы в директорию dir
type Store struct {
	dir     string
	maxSize int64
}

// New создает Store и директорию для файлов
func New(dir string, maxSize int64) (*Store, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Store{dir: dir, maxSize: maxSize}, nil
}

// Dir returns upload directory
func (s *Store) Dir() string {
	return s.dir
}

// MaxSize returns size limit in bytes
func (s *Store) MaxSize() int64 {
	return s.maxSize
}

// Save сохраняет картинку и возвращает имя файла.
// Тип определяется по содержимому, а не по имени или заголовкам клиента
func (s *Store) Save(r io.Reader) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", ErrUnsupportedType
	}

	ext, ok := allowedTypes[http.DetectContentType(head)]
	if !ok {
		return "", ErrUnsupportedType
	}

	name := uuid.New().String() + ext
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	// Читаем на один байт больше лимита, чтобы понять что файл слишком большой
	src := io.LimitReader(io.MultiReader(bytes.NewReader(head), r), s.maxSize+1)
	written, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	case written > s.maxSize:
		_ = os.Remove(path)
		return "", ErrTooLarge
	}

	return name, nil
}

// Delete удаляет файл. Отсутствующий файл ошибкой не считается
func (s *Store) Delete(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Handler раздает файлы по пути prefix + name, без листинга директорий
func (s *Store) Handler(prefix string) http.Handler {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(s.dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
