package service

import (
	"context"
	"strings"

	"HealthSeva/logger"
	"HealthSeva/module/post/model"
	"HealthSeva/module/post/store"
	"HealthSeva/module/user/session"
	"HealthSeva/tools/errs"

	"go.uber.org/zap"
)

type Posts struct {
	store store.Store
}

func New(st store.Store) *Posts {
	return &Posts{store: st}
}

// Create publishes a post under the caller's name and role.
func (s *Posts) Create(ctx context.Context, st session.State, content, typ string) (*model.Post, error) {
	if err := st.RequireSignedIn(); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errs.ErrArgs.WrapMsg("content is empty")
	}
	if typ = strings.TrimSpace(typ); typ == "" {
		typ = model.DefaultType
	}
	return s.store.Create(ctx, &model.Post{
		Content:  content,
		Author:   st.Identity.Name,
		AuthorID: st.Identity.ID,
		Role:     st.Role,
		Type:     typ,
	})
}

// List is newest first; a failing backend yields an empty feed.
func (s *Posts) List(ctx context.Context) []*model.Post {
	list, err := s.store.List(ctx)
	if err != nil {
		logger.Warn("[Posts] list failed, serving empty feed", zap.Error(err))
		return []*model.Post{}
	}
	return list
}

func (s *Posts) Like(ctx context.Context, st session.State, id string) (int64, error) {
	if err := st.RequireSignedIn(); err != nil {
		return 0, err
	}
	return s.store.Like(ctx, id)
}

func (s *Posts) Edit(ctx context.Context, st session.State, id, content string) error {
	if err := st.RequireAdmin(); err != nil {
		return err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return errs.ErrArgs.WrapMsg("content is empty")
	}
	return s.store.EditContent(ctx, id, content)
}

func (s *Posts) Delete(ctx context.Context, st session.State, id string) error {
	if err := st.RequireAdmin(); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}
