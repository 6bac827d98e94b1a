package service

import (
	"context"

	reqmodel "HealthSeva/module/request/model"
	"HealthSeva/module/user/model"
	"HealthSeva/module/user/session"
	"HealthSeva/module/user/store"
)

const recentLimit = 5

type RequestLister interface {
	List(ctx context.Context) ([]*reqmodel.Request, error)
}

type Profiles struct {
	profiles store.ProfileStore
	requests RequestLister
}

func NewProfiles(profiles store.ProfileStore, requests RequestLister) *Profiles {
	return &Profiles{profiles: profiles, requests: requests}
}

func (p *Profiles) Get(ctx context.Context, st session.State) (*model.Profile, error) {
	if err := st.RequireSignedIn(); err != nil {
		return nil, err
	}
	return p.profiles.Get(ctx, st.Identity.ID)
}

// Update merges the editable fields; role and email are not among them.
func (p *Profiles) Update(ctx context.Context, st session.State, u model.ProfileUpdate) (*model.Profile, error) {
	if err := st.RequireSignedIn(); err != nil {
		return nil, err
	}
	return p.profiles.Update(ctx, st.Identity.ID, u)
}

type Activity struct {
	Stats  model.Stats         `json:"stats"`
	Recent []*reqmodel.Request `json:"recent"`
}

// Activity counts the caller's requests and responses and returns their
// most recent requests.
func (p *Profiles) Activity(ctx context.Context, st session.State) (*Activity, error) {
	if err := st.RequireSignedIn(); err != nil {
		return nil, err
	}
	list, err := p.requests.List(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(list, st.Identity.ID), nil
}

func summarize(list []*reqmodel.Request, id string) *Activity {
	out := &Activity{Recent: []*reqmodel.Request{}}
	for _, r := range list {
		if r.RespondedBy(id) {
			out.Stats.ResponsesGiven++
		}
		if r.UserID != id {
			continue
		}
		out.Stats.RequestsMade++
		if r.Status == reqmodel.StatusFulfilled {
			out.Stats.RequestsFulfilled++
		}
		if len(out.Recent) < recentLimit {
			out.Recent = append(out.Recent, r)
		}
	}
	return out
}
