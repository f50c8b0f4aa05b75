// Package social implements the follow, like and posting operations.
package social

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"socialnet/internal/logging"
	"socialnet/internal/metrics"
	"socialnet/internal/models"
)

const maxCaptionLen = 2200

// Relationships stores follow edges between users.
type Relationships interface {
	Follow(ctx context.Context, actorID, targetUsername string) error
	Unfollow(ctx context.Context, actorID, targetUsername string) error
}

// Posts stores posts and their likes.
type Posts interface {
	Create(ctx context.Context, p *models.Post) error
	Like(ctx context.Context, postID, actorUsername string) error
	Unlike(ctx context.Context, postID, actorUsername string) error
}

type Service struct {
	users Relationships
	posts Posts
}

func NewService(users Relationships, posts Posts) *Service {
	return &Service{users: users, posts: posts}
}

// Follow makes actor a follower of the user named target. Following the
// same user twice is a no-op.
func (s *Service) Follow(ctx context.Context, actor *models.Identity, target string) error {
	if err := s.users.Follow(ctx, actor.ID, target); err != nil {
		return errors.Wrapf(err, "follow %s", target)
	}
	s.done(ctx, "follow", "target", target)
	return nil
}

func (s *Service) Unfollow(ctx context.Context, actor *models.Identity, target string) error {
	if err := s.users.Unfollow(ctx, actor.ID, target); err != nil {
		return errors.Wrapf(err, "unfollow %s", target)
	}
	s.done(ctx, "unfollow", "target", target)
	return nil
}

// Like adds actor to the post's like list. Liking twice is a no-op.
func (s *Service) Like(ctx context.Context, actor *models.Identity, postID string) error {
	if err := s.posts.Like(ctx, postID, actor.Username); err != nil {
		return errors.Wrapf(err, "like post %s", postID)
	}
	s.done(ctx, "like", "post", postID)
	return nil
}

func (s *Service) Unlike(ctx context.Context, actor *models.Identity, postID string) error {
	if err := s.posts.Unlike(ctx, postID, actor.Username); err != nil {
		return errors.Wrapf(err, "unlike post %s", postID)
	}
	s.done(ctx, "unlike", "post", postID)
	return nil
}

// CreatePost validates the input and stores a new post owned by actor.
func (s *Service) CreatePost(ctx context.Context, actor *models.Identity, caption, img string) (*models.Post, error) {
	caption, img, err := ValidatePost(caption, img)
	if err != nil {
		return nil, err
	}

	p := &models.Post{
		UserID:   actor.ID,
		Username: actor.Username,
		Caption:  caption,
		Img:      img,
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create post")
	}
	s.done(ctx, "post", "post", p.ID)
	return p, nil
}

// ValidatePost trims and checks post input. The image URL is optional.
func ValidatePost(caption, img string) (string, string, error) {
	caption = strings.TrimSpace(caption)
	if n := utf8.RuneCountInString(caption); n == 0 || n > maxCaptionLen {
		return "", "", fmt.Errorf("%w: caption must be 1-%d characters", models.ErrValidation, maxCaptionLen)
	}

	img = strings.TrimSpace(img)
	if img != "" {
		u, err := url.Parse(img)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "", "", fmt.Errorf("%w: image must be an http or https URL", models.ErrValidation)
		}
	}
	return caption, img, nil
}

func (s *Service) done(ctx context.Context, action, key, value string) {
	metrics.RecordMutation(action)
	logging.FromContext(ctx).WithField(key, value).Infof("%s succeeded", action)
}
