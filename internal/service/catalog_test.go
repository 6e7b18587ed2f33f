package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/bigkaa/gosoundstore/catalog-module/internal/domain/model"
)

// registerArtist регистрирует исполнителя и возвращает (userID, artistID).
// verified управляет флагом верификации.
func registerArtist(t *testing.T, env *testEnv, email, username, name string, verified bool) (string, string) {
	t.Helper()
	ctx := context.Background()

	view, err := env.accounts.Register(ctx, RegisterParams{
		Email:    email,
		Username: username,
		Password: "secret-password1",
		Artist:   &RegisterArtistParams{Name: name},
	})
	if err != nil {
		t.Fatalf("Register() ошибка: %v", err)
	}
	if verified {
		if err := env.artists.SetVerified(ctx, view.Artist.ID, true); err != nil {
			t.Fatalf("SetVerified() ошибка: %v", err)
		}
	}
	return view.ID, view.Artist.ID
}

// audioPayload строит тестовый payload.
func audioPayload(filename, contentType string) AudioPayload {
	body := "OggS\x00\x00 тестовые байты"
	return AudioPayload{
		Reader:           strings.NewReader(body),
		OriginalFilename: filename,
		ContentType:      contentType,
		Size:             int64(len(body)),
	}
}

// TestIngest_AuthzGate — загрузка доступна только верифицированным
// исполнителям; отказ не оставляет ни строк, ни объектов.
func TestIngest_AuthzGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	listener, err := env.accounts.Register(ctx, RegisterParams{
		Email:    "listener@example.com",
		Username: "listener",
		Password: "secret-password1",
	})
	if err != nil {
		t.Fatalf("Register() ошибка: %v", err)
	}
	unverifiedUser, _ := registerArtist(t, env, "draft@example.com", "draft", "Черновик", false)

	params := IngestParams{Title: "Трек", Duration: 100}

	_, err = env.catalog.IngestTrack(ctx, listener.ID, params, audioPayload("a.ogg", "audio/ogg"))
	if !errors.Is(err, ErrNotArtist) {
		t.Fatalf("слушатель: ожидается ErrNotArtist, получено: %v", err)
	}

	_, err = env.catalog.IngestTrack(ctx, unverifiedUser, params, audioPayload("a.ogg", "audio/ogg"))
	if !errors.Is(err, ErrNotVerified) {
		t.Fatalf("неверифицированный: ожидается ErrNotVerified, получено: %v", err)
	}

	if n := env.countRows(t, "tracks"); n != 0 {
		t.Errorf("tracks: %d строк, ожидается 0", n)
	}
	if n := env.blobs.PutCount(); n != 0 {
		t.Errorf("blob-записей: %d, ожидается 0", n)
	}
}

// TestIngest_VerifiedFlip — после включения верификации та же
// загрузка проходит.
func TestIngest_VerifiedFlip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID, artistID := registerArtist(t, env, "flip@example.com", "flip", "Флип", false)
	params := IngestParams{Title: "Трек", Duration: 100}

	if _, err := env.catalog.IngestTrack(ctx, userID, params, audioPayload("a.ogg", "audio/ogg")); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("ожидается ErrNotVerified, получено: %v", err)
	}

	if err := env.artists.SetVerified(ctx, artistID, true); err != nil {
		t.Fatalf("SetVerified() ошибка: %v", err)
	}

	res, err := env.catalog.IngestTrack(ctx, userID, params, audioPayload("a.ogg", "audio/ogg"))
	if err != nil {
		t.Fatalf("IngestTrack() после верификации: %v", err)
	}
	if res.Track.AIStatus != model.AIStatusPending {
		t.Errorf("AIStatus = %q, ожидается pending", res.Track.AIStatus)
	}
}

// TestIngest_Validation — не-аудио и отсутствующий payload отклоняются.
func TestIngest_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID, _ := registerArtist(t, env, "val@example.com", "val", "Вал", true)

	cases := []struct {
		name    string
		params  IngestParams
		payload AudioPayload
	}{
		{"не аудио", IngestParams{Title: "Т", Duration: 1}, audioPayload("a.pdf", "application/pdf")},
		{"без payload", IngestParams{Title: "Т", Duration: 1}, AudioPayload{ContentType: "audio/ogg"}},
		{"без названия", IngestParams{Duration: 1}, audioPayload("a.ogg", "audio/ogg")},
		{"отрицательная длительность", IngestParams{Title: "Т", Duration: -5}, audioPayload("a.ogg", "audio/ogg")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.catalog.IngestTrack(ctx, userID, tc.params, tc.payload)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("ожидается ErrValidation, получено: %v", err)
			}
		})
	}

	if n := env.countRows(t, "tracks"); n != 0 {
		t.Errorf("tracks: %d строк, ожидается 0", n)
	}
}

// TestIngest_ForeignAlbum — чужой и несуществующий альбом дают
// одинаковый ErrNotFound, без записи в хранилище.
func TestIngest_ForeignAlbum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID, _ := registerArtist(t, env, "mine@example.com", "mine", "Свой", true)
	_, foreignArtistID := registerArtist(t, env, "their@example.com", "their", "Чужой", true)

	foreignAlbum := &model.Album{
		ID:       uuid.New().String(),
		ArtistID: foreignArtistID,
		Title:    "Чужой альбом",
	}
	if err := env.albums.Create(ctx, foreignAlbum); err != nil {
		t.Fatalf("Create(album) ошибка: %v", err)
	}
	ghost := uuid.New().String()

	for _, albumID := range []string{foreignAlbum.ID, ghost} {
		params := IngestParams{Title: "Трек", Duration: 10, AlbumID: &albumID}
		_, err := env.catalog.IngestTrack(ctx, userID, params, audioPayload("a.ogg", "audio/ogg"))
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("альбом %s: ожидается ErrNotFound, получено: %v", albumID, err)
		}
	}

	if n := env.countRows(t, "tracks"); n != 0 {
		t.Errorf("tracks: %d строк, ожидается 0", n)
	}
	if n := env.blobs.PutCount(); n != 0 {
		t.Errorf("blob-записей: %d, ожидается 0", n)
	}
}

// TestIngest_BlobFailure — сбой хранилища даёт ErrStorage
// и не оставляет строк каталога.
func TestIngest_BlobFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID, _ := registerArtist(t, env, "fail@example.com", "fail", "Фейл", true)

	env.blobs.FailNext()
	_, err := env.catalog.IngestTrack(ctx, userID,
		IngestParams{Title: "Трек", Duration: 10},
		audioPayload("a.ogg", "audio/ogg"))
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("ожидается ErrStorage, получено: %v", err)
	}

	if n := env.countRows(t, "tracks"); n != 0 {
		t.Errorf("tracks: %d строк, ожидается 0", n)
	}
	if n := env.countRows(t, "track_files"); n != 0 {
		t.Errorf("track_files: %d строк, ожидается 0", n)
	}
}

// TestIngest_AlbumAggregate — три загрузки в один альбом:
// порядковые номера 1..3, total_duration — сумма длительностей.
func TestIngest_AlbumAggregate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID, artistID := registerArtist(t, env, "agg@example.com", "agg", "Агрегат", true)

	album := &model.Album{
		ID:       uuid.New().String(),
		ArtistID: artistID,
		Title:    "Альбом",
	}
	if err := env.albums.Create(ctx, album); err != nil {
		t.Fatalf("Create(album) ошибка: %v", err)
	}

	durations := []int{0, 180, 240}
	for i, d := range durations {
		params := IngestParams{
			Title:    "Трек",
			Genre:    "ambient",
			Duration: d,
			AlbumID:  &album.ID,
		}
		res, err := env.catalog.IngestTrack(ctx, userID, params, audioPayload("track.ogg", "audio/ogg"))
		if err != nil {
			t.Fatalf("IngestTrack() #%d ошибка: %v", i+1, err)
		}
		if res.Track.Duration != d {
			t.Errorf("Duration = %d, ожидается %d", res.Track.Duration, d)
		}
	}

	got, err := env.albums.GetByID(ctx, album.ID)
	if err != nil {
		t.Fatalf("GetByID(album) ошибка: %v", err)
	}
	if got.TotalDuration != 420 {
		t.Errorf("TotalDuration = %d, ожидается 420", got.TotalDuration)
	}

	// Порядковые номера 1..3
	rows, err := env.pool.Query(ctx,
		"SELECT track_number FROM album_tracks WHERE album_id = $1 ORDER BY track_number", album.ID)
	if err != nil {
		t.Fatalf("Запрос album_tracks: %v", err)
	}
	defer rows.Close()
	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		numbers = append(numbers, n)
	}
	if len(numbers) != 3 || numbers[0] != 1 || numbers[1] != 2 || numbers[2] != 3 {
		t.Errorf("track_number = %v, ожидается [1 2 3]", numbers)
	}
}

// TestIngest_FileVariant — файловый вариант: формат по MIME-типу,
// битрейт по умолчанию, ключ в пространстве исполнителя.
func TestIngest_FileVariant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID, artistID := registerArtist(t, env, "fmt@example.com", "fmt", "Формат", true)

	cases := []struct {
		name        string
		contentType string
		wantFormat  string
	}{
		{"ogg", "audio/ogg", model.FormatOGG},
		{"aac", "audio/aac", model.FormatAAC},
		{"mp4", "audio/mp4", model.FormatAAC},
		{"неизвестный аудио", "audio/flac", model.FormatOGG},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := env.catalog.IngestTrack(ctx, userID,
				IngestParams{Title: "Трек", Duration: 60},
				audioPayload("Мой трек 01.bin", tc.contentType))
			if err != nil {
				t.Fatalf("IngestTrack() ошибка: %v", err)
			}
			if len(res.Track.Files) != 1 {
				t.Fatalf("Files: %d, ожидается 1", len(res.Track.Files))
			}
			f := res.Track.Files[0]
			if f.Format != tc.wantFormat {
				t.Errorf("Format = %q, ожидается %q", f.Format, tc.wantFormat)
			}
			if f.Bitrate != defaultBitrate {
				t.Errorf("Bitrate = %d, ожидается %d", f.Bitrate, defaultBitrate)
			}
			if !strings.HasPrefix(res.StorageRef.Key, "tracks/"+artistID+"/") {
				t.Errorf("Key = %q вне пространства исполнителя", res.StorageRef.Key)
			}
			if strings.Contains(res.StorageRef.Key, " ") {
				t.Errorf("Key = %q содержит пробелы", res.StorageRef.Key)
			}
		})
	}
}

// TestListArtistTracks — порядок по убыванию времени создания,
// идемпотентность, инвалидация кэша после загрузки.
func TestListArtistTracks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID, _ := registerArtist(t, env, "list@example.com", "list", "Список", true)

	titles := []string{"Первый", "Второй", "Третий"}
	for _, title := range titles {
		if _, err := env.catalog.IngestTrack(ctx, userID,
			IngestParams{Title: title, Duration: 30},
			audioPayload(title+".ogg", "audio/ogg")); err != nil {
			t.Fatalf("IngestTrack(%q) ошибка: %v", title, err)
		}
	}

	tracks, err := env.catalog.ListArtistTracks(ctx, userID)
	if err != nil {
		t.Fatalf("ListArtistTracks() ошибка: %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("len(tracks) = %d, ожидается 3", len(tracks))
	}
	// Убывание по времени создания: при равных created_at допускается
	// любой порядок, но набор названий фиксирован
	for i := 1; i < len(tracks); i++ {
		if tracks[i].CreatedAt.After(tracks[i-1].CreatedAt) {
			t.Errorf("порядок нарушен: %v позже %v", tracks[i].CreatedAt, tracks[i-1].CreatedAt)
		}
	}
	for _, tr := range tracks {
		if len(tr.Files) != 1 {
			t.Errorf("трек %q: %d файлов, ожидается 1", tr.Title, len(tr.Files))
		}
	}

	// Идемпотентность (второй вызов идёт из кэша)
	again, err := env.catalog.ListArtistTracks(ctx, userID)
	if err != nil {
		t.Fatalf("повторный ListArtistTracks() ошибка: %v", err)
	}
	if len(again) != len(tracks) {
		t.Errorf("повторный вызов: %d треков, ожидается %d", len(again), len(tracks))
	}

	// Новая загрузка инвалидирует кэш
	if _, err := env.catalog.IngestTrack(ctx, userID,
		IngestParams{Title: "Четвёртый", Duration: 30},
		audioPayload("4.ogg", "audio/ogg")); err != nil {
		t.Fatalf("IngestTrack() ошибка: %v", err)
	}
	fresh, err := env.catalog.ListArtistTracks(ctx, userID)
	if err != nil {
		t.Fatalf("ListArtistTracks() после загрузки: %v", err)
	}
	if len(fresh) != 4 {
		t.Errorf("после загрузки: %d треков, ожидается 4", len(fresh))
	}

	// Слушатель списки не получает
	listener, err := env.accounts.Register(ctx, RegisterParams{
		Email:    "nolist@example.com",
		Username: "nolist",
		Password: "secret-password1",
	})
	if err != nil {
		t.Fatalf("Register() ошибка: %v", err)
	}
	if _, err := env.catalog.ListArtistTracks(ctx, listener.ID); !errors.Is(err, ErrNotArtist) {
		t.Fatalf("слушатель: ожидается ErrNotArtist, получено: %v", err)
	}
}
