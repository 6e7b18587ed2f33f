// tracks.go — обработчики /api/v1/tracks endpoints.
// Загрузка треков (multipart) и список собственных треков исполнителя.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/bigkaa/gosoundstore/catalog-module/internal/api/errors"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/api/middleware"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/service"
)

// multipartMemoryLimit — объём формы, удерживаемый в памяти;
// остальное уходит во временные файлы.
const multipartMemoryLimit = 10 << 20

// trackFileResponse — файловый вариант трека в ответах API.
type trackFileResponse struct {
	ID       string `json:"id"`
	Format   string `json:"format"`
	Bitrate  int    `json:"bitrate"`
	FileURL  string `json:"fileUrl"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// trackResponse — трек в ответах API.
type trackResponse struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Genre     string              `json:"genre,omitempty"`
	Duration  int                 `json:"duration"`
	AIStatus  string              `json:"aiStatus"`
	CreatedAt time.Time           `json:"createdAt"`
	Files     []trackFileResponse `json:"files"`
}

// mapTrack строит представление трека для API.
func mapTrack(t *model.Track) trackResponse {
	resp := trackResponse{
		ID:        t.ID,
		Title:     t.Title,
		Genre:     t.Genre,
		Duration:  t.Duration,
		AIStatus:  t.AIStatus,
		CreatedAt: t.CreatedAt,
		Files:     make([]trackFileResponse, 0, len(t.Files)),
	}
	for _, f := range t.Files {
		resp.Files = append(resp.Files, trackFileResponse{
			ID:       f.ID,
			Format:   f.Format,
			Bitrate:  f.Bitrate,
			FileURL:  f.FileURL,
			MimeType: f.MimeType,
			FileSize: f.FileSize,
		})
	}
	return resp
}

// UploadTrack — POST /api/v1/tracks.
// Принимает multipart/form-data: file (аудиофайл), title, genre,
// duration (секунды), albumId (опционально).
// Доступ: верифицированный исполнитель.
func (h *APIHandler) UploadTrack(w http.ResponseWriter, r *http.Request) {
	subject := middleware.SubjectFromContext(r.Context())
	if subject == "" {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	// Жёсткое ограничение размера тела запроса
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			apierrors.ValidationError(w,
				"Размер запроса превышает лимит "+strconv.FormatInt(h.cfg.MaxUploadSize, 10)+" байт")
			return
		}
		apierrors.ValidationError(w, "Некорректная multipart-форма: "+err.Error())
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Поле file обязательно")
		return
	}
	defer file.Close()

	duration := 0
	if raw := r.FormValue("duration"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil {
			apierrors.ValidationError(w, "Поле duration должно быть целым числом секунд")
			return
		}
	}

	params := service.IngestParams{
		Title:    r.FormValue("title"),
		Genre:    r.FormValue("genre"),
		Duration: duration,
	}
	if albumID := r.FormValue("albumId"); albumID != "" {
		params.AlbumID = &albumID
	}

	payload := service.AudioPayload{
		Reader:           file,
		OriginalFilename: header.Filename,
		ContentType:      header.Header.Get("Content-Type"),
		Size:             header.Size,
	}

	res, err := h.catalog.IngestTrack(r.Context(), subject, params, payload)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapTrack(res.Track))
}

// ListMyTracks — GET /api/v1/tracks/my.
// Возвращает треки аутентифицированного исполнителя по убыванию
// времени создания.
// Доступ: исполнитель (верификация не требуется).
func (h *APIHandler) ListMyTracks(w http.ResponseWriter, r *http.Request) {
	subject := middleware.SubjectFromContext(r.Context())
	if subject == "" {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	tracks, err := h.catalog.ListArtistTracks(r.Context(), subject)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]trackResponse, 0, len(tracks))
	for _, t := range tracks {
		items = append(items, mapTrack(t))
	}

	writeJSON(w, http.StatusOK, items)
}
