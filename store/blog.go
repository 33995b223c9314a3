package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cookiq/models"
)

// RefreshBlogs loads the approved posts and, for an admin, the pending ones
// too. If any of the fetches fails the previous collection stays.
func (s *Store) RefreshBlogs(ctx context.Context) {
	s.mu.RLock()
	epoch := s.epoch
	admin := s.identity != nil && s.identity.IsAdmin()
	s.mu.RUnlock()

	var public, pending []models.BlogPost
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		public, err = s.api.PublicPosts(gctx)
		return err
	})
	if admin {
		g.Go(func() error {
			var err error
			pending, err = s.api.PendingPosts(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("fetch blogs failed", zap.Bool("admin", admin), zap.Error(err))
		return
	}

	posts := MergePosts(mapPosts(public), mapPosts(pending))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return
	}
	s.blogs = posts
}

func mapPosts(list []models.BlogPost) []BlogPost {
	posts := make([]BlogPost, 0, len(list))
	for _, b := range list {
		posts = append(posts, PostFromWire(b))
	}
	return posts
}

// AddBlog submits a post under the signed-in author. Posts by regular users
// wait for moderation.
func (s *Store) AddBlog(ctx context.Context, d BlogDraft) error {
	identity := s.Identity()
	if identity == nil {
		return ErrNotAuthenticated
	}
	_, err := s.api.CreatePost(ctx, models.CreateBlogRequest{
		Title:         d.Title,
		Category:      string(d.Category),
		CoverImageURL: d.Image,
		Content:       d.Content,
		AuthorID:      identity.ID,
	})
	if err != nil {
		s.log.Error("create post failed", zap.String("title", d.Title), zap.Error(err))
		return fmt.Errorf("add blog: %w", err)
	}
	s.RefreshBlogs(ctx)
	return nil
}

func (s *Store) ApproveBlog(ctx context.Context, id string) error {
	if err := s.api.ApprovePost(ctx, id); err != nil {
		s.log.Error("approve post failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("approve blog: %w", err)
	}
	s.RefreshBlogs(ctx)
	return nil
}

// RejectPending removes a post that is still waiting for moderation.
func (s *Store) RejectPending(ctx context.Context, id string) error {
	if err := s.api.RejectPost(ctx, id); err != nil {
		s.log.Error("reject post failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("reject blog: %w", err)
	}
	s.RefreshBlogs(ctx)
	return nil
}

// DeleteApproved removes a published post.
func (s *Store) DeleteApproved(ctx context.Context, id string) error {
	if err := s.api.DeleteApprovedPost(ctx, id); err != nil {
		s.log.Error("delete post failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("delete blog: %w", err)
	}
	s.RefreshBlogs(ctx)
	return nil
}

// DeleteBlog picks RejectPending or DeleteApproved from the status the post
// has in the loaded collection.
func (s *Store) DeleteBlog(ctx context.Context, id string) error {
	post, ok := s.Post(id)
	if !ok {
		return ErrUnknownPost
	}
	if post.Status == StatusPending {
		return s.RejectPending(ctx, id)
	}
	return s.DeleteApproved(ctx, id)
}

// AddComment posts a comment as the signed-in user and swaps the returned
// post into the collection.
func (s *Store) AddComment(ctx context.Context, blogID, content string) error {
	identity := s.Identity()
	if identity == nil {
		return ErrNotAuthenticated
	}

	updated, err := s.api.AddComment(ctx, blogID, identity.ID, content)
	if err != nil {
		s.log.Error("add comment failed", zap.String("post", blogID), zap.Error(err))
		return fmt.Errorf("add comment: %w", err)
	}
	post := PostFromWire(*updated)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.blogs {
		if s.blogs[i].ID == post.ID {
			s.blogs[i] = post
			break
		}
	}
	return nil
}
