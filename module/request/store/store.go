package store

import (
	"context"

	"HealthSeva/module/request/model"
)

// Store is the canonical request collection. Writes are acknowledged before
// returning and never retried; a missing id is errs.ErrRecordNotFound and an
// unreachable backend errs.ErrTransport.
type Store interface {
	// Create assigns id, PENDING status, empty responses and the creation
	// time, then persists. The caller's fields are taken as they are.
	Create(ctx context.Context, r *model.Request) (*model.Request, error)
	Get(ctx context.Context, id string) (*model.Request, error)
	// List returns every request, newest first (ties broken by id, newest first).
	List(ctx context.Context) ([]*model.Request, error)
	// Respond appends resp and sets ACCEPTED in one atomic update.
	Respond(ctx context.Context, id string, resp model.Response) error
	UpdateStatus(ctx context.Context, id string, status model.Status) error
	Edit(ctx context.Context, id string, patch model.Patch) error
	Delete(ctx context.Context, id string) error
}

// Watcher is implemented by stores that can report changes made by other
// processes.
type Watcher interface {
	Watch(ctx context.Context, changed func()) error
}
