package session

import (
	"sort"
	"strings"
	"sync/atomic"
)

// AllowList is an AdminPolicy over identity ids and emails. Replace swaps the
// whole list atomically, so it can follow a config watcher.
type AllowList struct {
	set atomic.Pointer[map[string]struct{}]
}

var _ AdminPolicy = (*AllowList)(nil)

func NewAllowList(entries ...string) *AllowList {
	a := &AllowList{}
	a.Replace(entries)
	return a
}

func (a *AllowList) Replace(entries []string) {
	m := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if k := normalize(e); k != "" {
			m[k] = struct{}{}
		}
	}
	a.set.Store(&m)
}

func (a *AllowList) IsAdmin(id Identity) bool {
	m := a.set.Load()
	if m == nil {
		return false
	}
	for _, k := range []string{normalize(id.Email), normalize(id.ID)} {
		if k == "" {
			continue
		}
		if _, ok := (*m)[k]; ok {
			return true
		}
	}
	return false
}

func (a *AllowList) Entries() []string {
	m := a.set.Load()
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(*m))
	for k := range *m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
