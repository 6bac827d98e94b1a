// Package analytics serves the admin dashboard counters.
package analytics

import (
	"context"
	"time"

	"HealthSeva/logger"
	reqmodel "HealthSeva/module/request/model"
	"HealthSeva/module/user/session"
	"HealthSeva/service/registry"
	"HealthSeva/service/storage"

	"go.uber.org/zap"
)

type RequestLister interface {
	List(ctx context.Context) ([]*reqmodel.Request, error)
}

type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

type PeerLister interface {
	Peers(ctx context.Context) ([]registry.Instance, error)
}

type Totals struct {
	Users     int64 `json:"totalUsers"`
	Requests  int   `json:"totalRequests"`
	Blood     int   `json:"bloodRequests"`
	Medicine  int   `json:"medicineRequests"`
	Fulfilled int   `json:"fulfilledRequests"`
	Pending   int   `json:"pendingRequests"`
	ThisMonth int   `json:"requestsThisMonth"`
	OnlineNow int64 `json:"onlineNow"`
}

// Service computes Totals from the stores. Counters whose backend fails are
// reported as zero and logged.
type Service struct {
	requests RequestLister
	users    UserCounter
	presence storage.Presence
	peers    PeerLister
	now      func() time.Time
}

// New wires the dashboard; presence and peers may be nil.
func New(requests RequestLister, users UserCounter, presence storage.Presence, peers PeerLister) *Service {
	return &Service{requests: requests, users: users, presence: presence, peers: peers, now: time.Now}
}

func (s *Service) Totals(ctx context.Context, st session.State) (*Totals, error) {
	if err := st.RequireAdmin(); err != nil {
		return nil, err
	}
	out := &Totals{}

	list, err := s.requests.List(ctx)
	if err != nil {
		logger.Warn("[Analytics] request list failed", zap.Error(err))
	}
	count(out, list, s.now())

	if n, err := s.users.Count(ctx); err != nil {
		logger.Warn("[Analytics] user count failed", zap.Error(err))
	} else {
		out.Users = n
	}
	if s.presence != nil {
		if n, err := s.presence.Count(ctx); err != nil {
			logger.Warn("[Analytics] presence count failed", zap.Error(err))
		} else {
			out.OnlineNow = n
		}
	}
	return out, nil
}

func count(out *Totals, list []*reqmodel.Request, now time.Time) {
	y, m, _ := now.Date()
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	for _, r := range list {
		out.Requests++
		switch r.Type {
		case reqmodel.TypeBlood:
			out.Blood++
		case reqmodel.TypeMedic:
			out.Medicine++
		}
		switch r.Status {
		case reqmodel.StatusFulfilled:
			out.Fulfilled++
		case reqmodel.StatusPending:
			out.Pending++
		}
		if !r.CreatedAt.Before(monthStart) {
			out.ThisMonth++
		}
	}
}

// Instances lists the registered backend instances, empty when the process
// runs without a registry.
func (s *Service) Instances(ctx context.Context, st session.State) ([]registry.Instance, error) {
	if err := st.RequireAdmin(); err != nil {
		return nil, err
	}
	if s.peers == nil {
		return []registry.Instance{}, nil
	}
	return s.peers.Peers(ctx)
}
