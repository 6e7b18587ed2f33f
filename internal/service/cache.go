// cache.go — LRU-кэш списков треков исполнителя с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/gosoundstore/catalog-module/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_tracks_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш списков треков.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_tracks_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша списков треков.",
	})
)

// TrackListCache — LRU-кэш списков треков по UUID исполнителя.
// Каждый экземпляр сервиса имеет собственный in-memory кэш;
// запись инвалидируется при загрузке нового трека исполнителем.
type TrackListCache struct {
	cache *expirable.LRU[string, []*model.Track]
}

// NewTrackListCache создаёт LRU-кэш с указанным максимальным размером и TTL.
func NewTrackListCache(maxSize int, ttl time.Duration) *TrackListCache {
	cache := expirable.NewLRU[string, []*model.Track](maxSize, nil, ttl)
	return &TrackListCache{cache: cache}
}

// Get возвращает список треков из кэша по artistID.
// Возвращает (список, true) при hit или (nil, false) при miss.
func (c *TrackListCache) Get(artistID string) ([]*model.Track, bool) {
	val, ok := c.cache.Get(artistID)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет список в кэше.
func (c *TrackListCache) Set(artistID string, tracks []*model.Track) {
	c.cache.Add(artistID, tracks)
}

// Invalidate удаляет список исполнителя из кэша.
func (c *TrackListCache) Invalidate(artistID string) {
	c.cache.Remove(artistID)
}
