package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sistem-rt/portal-api/internal/dto"
	"github.com/sistem-rt/portal-api/internal/models"
	appErrors "github.com/sistem-rt/portal-api/pkg/errors"
)

type newsStoreStub struct {
	items     []models.News
	listCalls int
}

func (s *newsStoreStub) List(ctx context.Context, filter models.NewsFilter) ([]models.News, error) {
	s.listCalls++
	if filter.Type == "" {
		return append([]models.News(nil), s.items...), nil
	}
	var result []models.News
	for _, item := range s.items {
		if item.Type == filter.Type {
			result = append(result, item)
		}
	}
	return result, nil
}

func (s *newsStoreStub) Create(ctx context.Context, item *models.News) error {
	if item.ID == "" {
		item.ID = "news-1"
	}
	s.items = append(s.items, *item)
	return nil
}

func (s *newsStoreStub) Delete(ctx context.Context, id string) error {
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	return nil
}

type memoryCacheStub struct {
	entries map[string][]byte
}

func newMemoryCacheStub() *memoryCacheStub {
	return &memoryCacheStub{entries: make(map[string][]byte)}
}

func (c *memoryCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryCacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.entries = make(map[string][]byte)
	return nil
}

type residentsStub struct {
	ids []string
}

func (s *residentsStub) ListIDsExcludingRole(ctx context.Context, role models.UserRole) ([]string, error) {
	return s.ids, nil
}

func newNewsFixture(cacheEnabled bool) (*newsStoreStub, *memoryCacheStub, *residentsStub, *sinkStub, *NewsService) {
	store := &newsStoreStub{}
	cache := newMemoryCacheStub()
	residents := &residentsStub{ids: []string{"user-1", "user-2"}}
	sink := &sinkStub{}
	svc := NewNewsService(store, cache, residents, sink, nil, cacheEnabled, time.Minute)
	return store, cache, residents, sink, svc
}

func TestNewsCreateNotifiesEveryResident(t *testing.T) {
	store, _, _, sink, svc := newNewsFixture(false)

	item, err := svc.Create(context.Background(), dto.CreateNewsRequest{
		Title:         "Kerja Bakti",
		Content:       "Minggu pagi di balai RT",
		Type:          "announcement",
		PublishedDate: "2026-08-30",
	}, adminClaims())
	require.NoError(t, err)
	require.Equal(t, models.NewsTypeAnnouncement, item.Type)
	require.Len(t, store.items, 1)

	require.Len(t, sink.sent, 2)
	require.Equal(t, "Pengumuman Baru", sink.sent[0].Title)
	require.Equal(t, models.NotificationKindNews, sink.sent[0].Kind)
	require.Equal(t, "/home", sink.sent[0].Link)
}

func TestNewsCreateRequiresAdmin(t *testing.T) {
	_, _, _, _, svc := newNewsFixture(false)
	_, err := svc.Create(context.Background(), dto.CreateNewsRequest{
		Title:         "Berita",
		Content:       "Isi",
		Type:          "news",
		PublishedDate: "2026-08-30",
	}, &models.JWTClaims{UserID: "user-1", Role: models.RoleResident})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestNewsCreateValidatesPayload(t *testing.T) {
	_, _, _, _, svc := newNewsFixture(false)
	_, err := svc.Create(context.Background(), dto.CreateNewsRequest{
		Title:         "Berita",
		Content:       "Isi",
		Type:          "gossip",
		PublishedDate: "2026-08-30",
	}, adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNewsListUsesCache(t *testing.T) {
	store, _, _, _, svc := newNewsFixture(true)
	store.items = []models.News{{ID: "news-1", Title: "Berita", Type: models.NewsTypeNews}}

	first, err := svc.List(context.Background(), models.NewsFilter{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.List(context.Background(), models.NewsFilter{})
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, 1, store.listCalls)
}

func TestNewsCreateInvalidatesCache(t *testing.T) {
	store, _, _, _, svc := newNewsFixture(true)

	_, err := svc.List(context.Background(), models.NewsFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, store.listCalls)

	_, err = svc.Create(context.Background(), dto.CreateNewsRequest{
		Title:         "Berita",
		Content:       "Isi",
		Type:          "news",
		PublishedDate: "2026-08-30",
	}, adminClaims())
	require.NoError(t, err)

	items, err := svc.List(context.Background(), models.NewsFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 2, store.listCalls)
}

func TestNewsListRejectsUnknownType(t *testing.T) {
	_, _, _, _, svc := newNewsFixture(false)
	_, err := svc.List(context.Background(), models.NewsFilter{Type: models.NewsType("gossip")})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNewsDeleteInvalidatesCache(t *testing.T) {
	store, cache, _, _, svc := newNewsFixture(true)
	store.items = []models.News{{ID: "news-1", Title: "Berita", Type: models.NewsTypeNews}}

	_, err := svc.List(context.Background(), models.NewsFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, cache.entries)

	require.NoError(t, svc.Delete(context.Background(), "news-1", adminClaims()))
	require.Empty(t, cache.entries)
	require.Empty(t, store.items)
}
