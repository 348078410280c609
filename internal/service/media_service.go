package service

import (
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/state"
	"alcyxob/sports-academy/internal/storage"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAlreadyPublished = errors.New("media post is already published")
	ErrUploadURLError   = errors.New("failed to generate upload URL")
	ErrInvalidMediaType = errors.New("only image uploads are accepted")
)

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // stored on the post or trainer once the upload is done
}

// Upload targets, used as the first segment of object keys.
const (
	UploadMedia    = "media"
	UploadTrainers = "trainers"
)

// MediaService runs the approval workflow for bulletins and galleries and
// hands out upload URLs for their images.
type MediaService interface {
	CreatePost(ctx context.Context, post domain.MediaPost) (domain.MediaPost, error)
	Publish(ctx context.Context, id string) (domain.MediaPost, error)
	DeletePost(ctx context.Context, id string) error
	RequestUploadURL(ctx context.Context, target, contentType string) (*UploadURLResponse, error)
}

type mediaService struct {
	media       *state.Collection[domain.MediaPost]
	fileStorage storage.FileStorage
	logger      *zap.Logger
	now         func() time.Time
}

func NewMediaService(store *state.Store, fileStorage storage.FileStorage, logger *zap.Logger) MediaService {
	return &mediaService{
		media:       store.Media(),
		fileStorage: fileStorage,
		logger:      logger,
		now:         time.Now,
	}
}

// CreatePost stores a new post. New posts always wait for approval.
func (s *mediaService) CreatePost(ctx context.Context, post domain.MediaPost) (domain.MediaPost, error) {
	post.CreatedAt, post.UpdatedAt = nil, nil
	post.Status = domain.MediaPending
	post.PublishedAt = nil
	if post.Type == "" {
		post.Type = domain.MediaBulletin
	}
	created, err := s.media.Add(post)
	return created, mapStateError(err)
}

func (s *mediaService) Publish(ctx context.Context, id string) (domain.MediaPost, error) {
	post, err := s.media.Modify(id, func(p *domain.MediaPost) error {
		if p.Status == domain.MediaPublished {
			return ErrAlreadyPublished
		}
		at := s.now().UTC()
		p.Status = domain.MediaPublished
		p.PublishedAt = &at
		return nil
	})
	if errors.Is(err, ErrAlreadyPublished) {
		return post, err
	}
	return post, mapStateError(err)
}

// DeletePost removes the post and then its stored images. Object cleanup is
// best effort; a leftover object never blocks the delete.
func (s *mediaService) DeletePost(ctx context.Context, id string) error {
	post, err := s.media.Remove(id)
	if err != nil {
		return mapStateError(err)
	}
	for _, key := range post.ObjectKeys {
		if err := s.fileStorage.DeleteObject(ctx, key); err != nil && !errors.Is(err, storage.ErrDisabled) {
			s.logger.Warn("media object left behind", zap.String("post", id), zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

func (s *mediaService) RequestUploadURL(ctx context.Context, target, contentType string) (*UploadURLResponse, error) {
	if target != UploadMedia && target != UploadTrainers {
		return nil, fmt.Errorf("%w: unknown upload target %q", ErrValidationFailed, target)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidMediaType
	}

	ext := strings.TrimPrefix(contentType, "image/")
	if ext == "jpeg" {
		ext = "jpg"
	}
	objectKey := path.Join(target, s.now().UTC().Format("2006/01"), fmt.Sprintf("%s.%s", uuid.NewString(), ext))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			return nil, err
		}
		return nil, ErrUploadURLError
	}
	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}
