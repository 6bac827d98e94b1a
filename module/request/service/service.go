package service

import (
	"context"
	"time"

	"HealthSeva/logger"
	"HealthSeva/module/request/feed"
	"HealthSeva/module/request/model"
	"HealthSeva/module/request/store"
	usermodel "HealthSeva/module/user/model"
	"HealthSeva/module/user/session"
	"HealthSeva/tools/errs"
	"HealthSeva/tools/safe"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher receives an event after each applied mutation. Failures are
// logged; the mutation has already happened.
type Publisher interface {
	Publish(ctx context.Context, ev model.Event) error
}

type CreateParams struct {
	Type        model.Type    `json:"type"`
	ItemName    string        `json:"itemName"`
	Description string        `json:"description"`
	Urgency     model.Urgency `json:"urgency"`
	UserName    string        `json:"userName"`
	UserContact string        `json:"userContact"`
	UserAddress string        `json:"userAddress"`
}

// Contact is what a provider leaves when answering a request.
type Contact struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}

// Requests applies role gates in front of the store and tells the feed and
// the publishers about every change.
type Requests struct {
	store  store.Store
	hub    *feed.Hub
	pubs   []Publisher
	origin string
	now    func() time.Time
}

// New wires the service; hub may be nil when nothing subscribes.
func New(st store.Store, hub *feed.Hub, origin string, pubs ...Publisher) *Requests {
	safe.MustNotNil(st, "request store")
	return &Requests{store: st, hub: hub, pubs: pubs, origin: origin, now: time.Now}
}

// Create stores a new PENDING request owned by the caller. Field contents
// are taken as given; the requester snapshot falls back to the identity name.
func (s *Requests) Create(ctx context.Context, st session.State, in CreateParams) (*model.Request, error) {
	if err := st.RequireSignedIn(); err != nil {
		return nil, err
	}
	name := in.UserName
	if name == "" {
		name = st.Identity.Name
	}
	r, err := s.store.Create(ctx, &model.Request{
		Type:        in.Type,
		ItemName:    in.ItemName,
		Description: in.Description,
		Urgency:     in.Urgency,
		UserID:      st.Identity.ID,
		UserName:    name,
		UserContact: in.UserContact,
		UserAddress: in.UserAddress,
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, model.EventCreated, r.ID, st, r.Status)
	return r, nil
}

// Respond appends the caller's contact and marks the request ACCEPTED.
// Repeated calls append again.
func (s *Requests) Respond(ctx context.Context, st session.State, id string, c Contact) error {
	if err := st.RequireRole(usermodel.RoleProvider); err != nil {
		return err
	}
	name := c.Name
	if name == "" {
		name = st.Identity.Name
	}
	err := s.store.Respond(ctx, id, model.Response{
		ProviderID: st.Identity.ID,
		Name:       name,
		Contact:    c.Contact,
		Address:    c.Address,
		Timestamp:  s.now(),
	})
	if err != nil {
		return err
	}
	s.changed(ctx, model.EventResponded, id, st, model.StatusAccepted)
	return nil
}

// UpdateStatus overwrites the status. Admins may change any request, other
// callers only their own.
func (s *Requests) UpdateStatus(ctx context.Context, st session.State, id string, status model.Status) error {
	if err := st.RequireSignedIn(); err != nil {
		return err
	}
	if !status.Valid() {
		return errs.ErrArgs.WrapMsg("unknown status", "status", status)
	}
	if !st.Admin {
		r, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := st.RequireAdminOr(r.UserID); err != nil {
			return err
		}
	}
	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.changed(ctx, model.EventStatus, id, st, status)
	return nil
}

func (s *Requests) Edit(ctx context.Context, st session.State, id string, p model.Patch) error {
	if err := st.RequireAdmin(); err != nil {
		return err
	}
	if p.Urgency != nil && !p.Urgency.Valid() {
		return errs.ErrArgs.WrapMsg("unknown urgency", "urgency", *p.Urgency)
	}
	if err := s.store.Edit(ctx, id, p); err != nil {
		return err
	}
	s.changed(ctx, model.EventEdited, id, st, "")
	return nil
}

func (s *Requests) Delete(ctx context.Context, st session.State, id string) error {
	if err := st.RequireAdmin(); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, model.EventDeleted, id, st, "")
	return nil
}

func (s *Requests) Get(ctx context.Context, id string) (*model.Request, error) {
	return s.store.Get(ctx, id)
}

// List is the full newest-first list. A failed read is logged and yields an
// empty list.
func (s *Requests) List(ctx context.Context) []*model.Request {
	list, err := s.store.List(ctx)
	if err != nil {
		logger.Warn("[Requests] list failed, returning empty", zap.Error(err))
		return []*model.Request{}
	}
	return list
}

func (s *Requests) Mine(ctx context.Context, st session.State) ([]*model.Request, error) {
	if err := st.RequireSignedIn(); err != nil {
		return nil, err
	}
	return model.OwnedBy(s.List(ctx), st.Identity.ID), nil
}

func (s *Requests) Blood(ctx context.Context, f model.BloodFilter) []*model.Request {
	return model.Blood(s.List(ctx), f)
}

func (s *Requests) Search(ctx context.Context, q string) []*model.Request {
	return model.Search(s.List(ctx), q)
}

// Subscribe opens a live view; the caller must Close it.
func (s *Requests) Subscribe() (*feed.Subscription, error) {
	if s.hub == nil {
		return nil, errs.ErrInternal.WrapMsg("live feed not configured")
	}
	return s.hub.Subscribe(), nil
}

// Dismiss hides id from one provider's subscription. Nothing is stored.
func (s *Requests) Dismiss(st session.State, sub *feed.Subscription, id string) error {
	if err := st.RequireRole(usermodel.RoleProvider); err != nil {
		return err
	}
	sub.Dismiss(id)
	return nil
}

func (s *Requests) changed(ctx context.Context, kind model.EventKind, id string, st session.State, status model.Status) {
	if s.hub != nil {
		s.hub.Notify()
	}
	if len(s.pubs) == 0 {
		return
	}
	ev := model.Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		RequestID: id,
		Actor:     st.Identity.ID,
		Status:    status,
		Origin:    s.origin,
		At:        s.now(),
	}
	for _, p := range s.pubs {
		if err := p.Publish(ctx, ev); err != nil {
			logger.Warn("[Requests] publish change failed", zap.String("kind", string(kind)), zap.String("request", id), zap.Error(err))
		}
	}
}
