package model

import "strings"

// Views over a snapshot. Every view keeps the snapshot's newest-first order
// and never mutates it.

// Pending is the provider dashboard: PENDING requests not in dismissed.
func Pending(list []*Request, dismissed map[string]struct{}) []*Request {
	out := make([]*Request, 0, len(list))
	for _, r := range list {
		if r.Status != StatusPending {
			continue
		}
		if _, ok := dismissed[r.ID]; ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

func OwnedBy(list []*Request, userID string) []*Request {
	out := make([]*Request, 0)
	for _, r := range list {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// BloodFilter narrows BLOOD requests; empty or "all" fields match everything.
type BloodFilter struct {
	BloodType string
	Urgency   string
	Status    string
}

func matchAll(want, got string) bool {
	return want == "" || strings.EqualFold(want, "all") || strings.EqualFold(want, got)
}

func Blood(list []*Request, f BloodFilter) []*Request {
	out := make([]*Request, 0)
	for _, r := range list {
		if r.Type != TypeBlood {
			continue
		}
		if !matchAll(f.BloodType, r.ItemName) || !matchAll(f.Urgency, string(r.Urgency)) || !matchAll(f.Status, string(r.Status)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

const SearchLimit = 5

// Search matches q case-insensitively against item, description, requester
// name and address.
func Search(list []*Request, q string) []*Request {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return []*Request{}
	}
	out := make([]*Request, 0, SearchLimit)
	for _, r := range list {
		if strings.Contains(strings.ToLower(r.ItemName), q) ||
			strings.Contains(strings.ToLower(r.Description), q) ||
			strings.Contains(strings.ToLower(r.UserName), q) ||
			strings.Contains(strings.ToLower(r.UserAddress), q) {
			out = append(out, r)
			if len(out) == SearchLimit {
				break
			}
		}
	}
	return out
}
