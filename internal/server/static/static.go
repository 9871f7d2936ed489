// Package static содержит встроенные в бинарник ресурсы сервера
package static

import (
	"embed"
	"net/http"
	"strings"
)

// DefaultAvatar имя аватара-заглушки внутри FS
const DefaultAvatar = "default-avatar.png"

//go:embed default-avatar.png
var FS embed.FS

// Handler раздает встроенные файлы по пути prefix + name, без листинга
func Handler(prefix string) http.Handler {
	fs := http.StripPrefix(prefix, http.FileServerFS(FS))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
