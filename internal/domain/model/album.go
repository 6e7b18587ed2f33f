package model

import "time"

// Album — альбом, принадлежащий ровно одному исполнителю.
// Хранится в таблице albums.
type Album struct {
	// ID — UUID альбома
	ID string
	// ArtistID — UUID владеющего исполнителя
	ArtistID string
	// Title — название альбома
	Title string
	// TotalDuration — производный агрегат: сумма длительностей всех треков,
	// привязанных через album_tracks. Пересчитывается после каждой загрузки,
	// затрагивающей альбом.
	TotalDuration int
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// AlbumTrack — связь альбома и трека (many-to-many через owned join).
// Удаление любого из родителей каскадно удаляет связь.
// Хранится в таблице album_tracks.
type AlbumTrack struct {
	// ID — UUID записи
	ID string
	// AlbumID — UUID альбома
	AlbumID string
	// TrackID — UUID трека
	TrackID string
	// TrackNumber — порядковый номер трека в альбоме
	TrackNumber int
	// DiscNumber — номер диска (по умолчанию 1)
	DiscNumber int
	// CreatedAt — время создания записи
	CreatedAt time.Time
}
