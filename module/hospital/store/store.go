package store

import (
	"context"

	"HealthSeva/module/hospital/model"
)

type Store interface {
	Create(ctx context.Context, h *model.Hospital) (*model.Hospital, error)
	// List is newest first.
	List(ctx context.Context) ([]*model.Hospital, error)
	Delete(ctx context.Context, id string) error
}
