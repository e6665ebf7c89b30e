package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sistem-rt/portal-api/internal/dto"
	"github.com/sistem-rt/portal-api/internal/models"
	appErrors "github.com/sistem-rt/portal-api/pkg/errors"
)

const newsCacheKeyPrefix = "news:list"

type newsStore interface {
	List(ctx context.Context, filter models.NewsFilter) ([]models.News, error)
	Create(ctx context.Context, item *models.News) error
	Delete(ctx context.Context, id string) error
}

type newsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type residentDirectory interface {
	ListIDsExcludingRole(ctx context.Context, role models.UserRole) ([]string, error)
}

// NewsService publishes and lists community news. Listings are cached; every
// publish invalidates the cache and notifies every resident.
type NewsService struct {
	repo      newsStore
	cache     newsCache
	residents residentDirectory
	notifier  NotificationSink
	validate  *validator.Validate
	logger    *zap.Logger

	cacheEnabled bool
	cacheTTL     time.Duration
}

// NewNewsService constructs the service. Cache may be nil, in which case
// listings always hit the database.
func NewNewsService(
	repo newsStore,
	cache newsCache,
	residents residentDirectory,
	notifier NotificationSink,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
) *NewsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &NewsService{
		repo:         repo,
		cache:        cache,
		residents:    residents,
		notifier:     notifier,
		validate:     validator.New(),
		logger:       logger,
		cacheEnabled: cacheEnabled && cache != nil,
		cacheTTL:     cacheTTL,
	}
}

// List returns news rows, optionally filtered by type, newest first.
func (s *NewsService) List(ctx context.Context, filter models.NewsFilter) ([]models.News, error) {
	if filter.Type != "" && filter.Type != models.NewsTypeNews && filter.Type != models.NewsTypeAnnouncement {
		return nil, appErrors.Clone(appErrors.ErrValidation, "jenis berita tidak valid")
	}

	cacheKey := fmt.Sprintf("%s:%s", newsCacheKeyPrefix, filter.Type)
	if s.cacheEnabled {
		var cached []models.News
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("news cache read failed", zap.Error(err))
		}
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list news")
	}

	if s.cacheEnabled {
		if err := s.cache.Set(ctx, cacheKey, items, s.cacheTTL); err != nil {
			s.logger.Warn("news cache write failed", zap.Error(err))
		}
	}
	return items, nil
}

// Create publishes a news item and fans a notification out to every
// resident. Notification failures never roll back the published row.
func (s *NewsService) Create(ctx context.Context, req dto.CreateNewsRequest, actor *models.JWTClaims) (*models.News, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}

	publishedDate, err := time.Parse("2006-01-02", req.PublishedDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tanggal publikasi tidak valid")
	}

	item := &models.News{
		Title:         req.Title,
		Content:       req.Content,
		Type:          models.NewsType(req.Type),
		PublishedDate: publishedDate,
		AuthorID:      actor.UserID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create news")
	}

	s.invalidateCache(ctx)
	s.notifyResidents(ctx, item)
	return item, nil
}

// Delete removes a news item (admin only).
func (s *NewsService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete news")
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *NewsService) invalidateCache(ctx context.Context) {
	if !s.cacheEnabled {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, newsCacheKeyPrefix+":*"); err != nil {
		s.logger.Warn("news cache invalidation failed", zap.Error(err))
	}
}

func (s *NewsService) notifyResidents(ctx context.Context, item *models.News) {
	residentIDs, err := s.residents.ListIDsExcludingRole(ctx, models.RoleAdmin)
	if err != nil {
		s.logger.Warn("failed to list residents for news notification", zap.Error(err))
		return
	}
	title := "Berita Baru"
	if item.Type == models.NewsTypeAnnouncement {
		title = "Pengumuman Baru"
	}
	for _, residentID := range residentIDs {
		s.notifier.Notify(ctx, residentID, models.NotificationKindNews, title, item.Title, "/home")
	}
}
