package store

import (
	"context"

	"HealthSeva/module/post/model"
)

// Store keeps the community feed. Missing ids are errs.ErrRecordNotFound.
type Store interface {
	// Create assigns id, zero likes and the timestamp.
	Create(ctx context.Context, p *model.Post) (*model.Post, error)
	// List is newest first.
	List(ctx context.Context) ([]*model.Post, error)
	// Like adds one like atomically and returns the new count.
	Like(ctx context.Context, id string) (int64, error)
	EditContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}
