package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/iudanet/traderouter/internal/hubs"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// pageData данные для templates/index.html
type pageData struct {
	SiteName      string
	Prefix        string
	AuthorizeURL  string
	PilotName     string
	CurrentSystem string
	RefreshToken  string
	Flashes       []Flash
	Distances     hubs.Distances
	PilotID       int64
	CurrentID     int32
	ShowLogin     bool
}

// render выполняет шаблон в буфер, чтобы ошибка шаблона не оставила
// наполовину записанный ответ
func render(logger *slog.Logger, w http.ResponseWriter, data pageData) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		logger.Error("failed to render page", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
