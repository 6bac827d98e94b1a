package service

import (
	"context"
	"strings"

	"HealthSeva/logger"
	"HealthSeva/module/hospital/model"
	"HealthSeva/module/hospital/store"
	"HealthSeva/module/user/session"
	"HealthSeva/tools/errs"

	"go.uber.org/zap"
)

type CreateParams struct {
	Name        string          `json:"name"`
	Address     string          `json:"address"`
	Contact     string          `json:"contact"`
	Description string          `json:"description"`
	Location    *model.Location `json:"location"`
}

type Hospitals struct {
	store store.Store
}

func New(st store.Store) *Hospitals {
	return &Hospitals{store: st}
}

// Create lists a new entry owned by the caller; only the name is required.
func (s *Hospitals) Create(ctx context.Context, st session.State, in CreateParams) (*model.Hospital, error) {
	if err := st.RequireSignedIn(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, errs.ErrArgs.WrapMsg("name is required")
	}
	return s.store.Create(ctx, &model.Hospital{
		Name:        strings.TrimSpace(in.Name),
		Address:     in.Address,
		Contact:     in.Contact,
		Description: in.Description,
		Location:    in.Location,
		ProviderID:  st.Identity.ID,
	})
}

func (s *Hospitals) List(ctx context.Context) []*model.Hospital {
	list, err := s.store.List(ctx)
	if err != nil {
		logger.Warn("[Hospitals] list failed, serving empty directory", zap.Error(err))
		return []*model.Hospital{}
	}
	return list
}

func (s *Hospitals) Delete(ctx context.Context, st session.State, id string) error {
	if err := st.RequireAdmin(); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}
