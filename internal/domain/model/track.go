package model

import "time"

// Статусы AI-проверки трека. Жизненный цикл статуса
// управляется внешним процессом проверки.
const (
	AIStatusPending  = "pending"
	AIStatusVerified = "verified"
	AIStatusRejected = "rejected"
)

// Форматы аудиофайлов.
const (
	FormatOGG = "ogg"
	FormatAAC = "aac"
)

// Track — аудиотрек, принадлежащий ровно одному исполнителю.
// Хранится в таблице tracks.
type Track struct {
	// ID — UUID трека
	ID string
	// ArtistID — UUID владеющего исполнителя
	ArtistID string
	// Title — название трека
	Title string
	// Genre — жанр
	Genre string
	// Duration — длительность в секундах (>= 0)
	Duration int
	// AIStatus — статус AI-проверки (pending, verified, rejected)
	AIStatus string
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time

	// Files — файловые варианты трека (заполняется при выборке списков)
	Files []*TrackFile
}

// TrackFile — файловый вариант трека в blob-хранилище.
// Создаётся один раз при загрузке, далее не изменяется.
// Хранится в таблице track_files.
type TrackFile struct {
	// ID — UUID записи
	ID string
	// TrackID — UUID владеющего трека
	TrackID string
	// Format — формат кодирования (ogg, aac)
	Format string
	// Bitrate — битрейт в kbps
	Bitrate int
	// FileURL — публичный URL объекта в blob-хранилище
	FileURL string
	// FilePath — внутренний ключ объекта в blob-хранилище
	FilePath string
	// MimeType — MIME-тип загруженного файла
	MimeType string
	// FileSize — размер файла в байтах
	FileSize int64
	// CreatedAt — время создания записи
	CreatedAt time.Time
}
