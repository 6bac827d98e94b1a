package service

import (
	"context"
	"errors"
	"testing"
	"time"

	reqmodel "HealthSeva/module/request/model"
	reqstore "HealthSeva/module/request/store"
	"HealthSeva/module/user/model"
	"HealthSeva/module/user/session"
	"HealthSeva/module/user/store"
	"HealthSeva/tools/errs"
	"HealthSeva/tools/security"
)

func newIdentity(t *testing.T) (*Identity, *store.MemoryProfiles, *store.MemorySessionLog) {
	t.Helper()
	profiles := store.NewMemoryProfiles()
	history := &store.MemorySessionLog{}
	opts := security.DefaultOptions([]byte("test-secret"))
	return NewIdentity(opts, profiles, store.NewMemoryTokens(), history), profiles, history
}

func TestIdentityIDIsStable(t *testing.T) {
	a := IdentityID("Alice@Example.org")
	if a != IdentityID(" alice@example.org") {
		t.Fatal("id should ignore case and spaces")
	}
	if a == IdentityID("bob@example.org") {
		t.Fatal("different emails share an id")
	}
}

func TestSignInVerifySignOut(t *testing.T) {
	id, profiles, history := newIdentity(t)
	ctx := context.Background()

	res, err := id.SignIn(ctx, SignInParams{Email: "alice@example.org", Name: "Alice", Role: model.RoleProvider})
	if err != nil {
		t.Fatal(err)
	}
	if res.Profile.Role != model.RoleProvider || res.Identity.ID != IdentityID("alice@example.org") {
		t.Fatalf("result = %+v", res)
	}
	if p, _ := profiles.Get(ctx, res.Identity.ID); p == nil || p.Name != "Alice" {
		t.Fatalf("profile = %+v", p)
	}

	who, err := id.Verify(ctx, "Bearer "+res.Token)
	if err != nil {
		t.Fatal(err)
	}
	if who.ID != res.Identity.ID || who.Email != "alice@example.org" || who.Name != "Alice" {
		t.Fatalf("verified identity = %+v", who)
	}

	if err := id.SignOut(ctx, res.Token); err != nil {
		t.Fatal(err)
	}
	if _, err := id.Verify(ctx, res.Token); !errors.Is(err, errs.ErrTokenInvalid) {
		t.Fatalf("revoked token err = %v", err)
	}
	if err := id.SignOut(ctx, res.Token); err != nil {
		t.Fatalf("second sign-out = %v", err)
	}

	entries := history.Snapshot()
	if len(entries) != 2 || entries[0].Status != model.SessionOnline || entries[1].Status != model.SessionOffline {
		t.Fatalf("history = %+v", entries)
	}
}

func TestSignInMergesRoleOnly(t *testing.T) {
	id, profiles, _ := newIdentity(t)
	ctx := context.Background()

	first, _ := id.SignIn(ctx, SignInParams{Email: "bob@example.org", Name: "Bob", Role: model.RoleUser, BloodType: "AB-"})
	if _, err := id.SignIn(ctx, SignInParams{Email: "bob@example.org", Name: "Robert", Role: model.RoleProvider}); err != nil {
		t.Fatal(err)
	}
	p, _ := profiles.Get(ctx, first.Identity.ID)
	if p.Role != model.RoleProvider || p.Name != "Bob" || p.BloodType != "AB-" {
		t.Fatalf("profile = %+v", p)
	}
}

func TestSignInRejectsBadEmail(t *testing.T) {
	id, _, _ := newIdentity(t)
	if _, err := id.SignIn(context.Background(), SignInParams{Email: "nope"}); !errors.Is(err, errs.ErrArgs) {
		t.Fatalf("err = %v", err)
	}
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	id, _, _ := newIdentity(t)
	ctx := context.Background()
	if _, err := id.Verify(ctx, ""); !errors.Is(err, errs.ErrNotLoggedIn) {
		t.Fatalf("empty token err = %v", err)
	}

	// signed with the right key but never issued through SignIn
	tok, _, _, err := security.Generate(security.DefaultOptions([]byte("test-secret")), "u1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := id.Verify(ctx, tok); !errors.Is(err, errs.ErrTokenInvalid) {
		t.Fatalf("unregistered token err = %v", err)
	}

	other, _, _, _ := security.Generate(security.DefaultOptions([]byte("other-secret")), "u1", nil)
	if _, err := id.Verify(ctx, other); !errors.Is(err, errs.ErrTokenInvalid) {
		t.Fatalf("foreign token err = %v", err)
	}
}

func TestActivity(t *testing.T) {
	ctx := context.Background()
	reqs := reqstore.NewMemoryStore()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	reqs.SetClock(func() time.Time { n++; return base.Add(time.Duration(n) * time.Minute) })

	var mine []*reqmodel.Request
	for i := 0; i < 6; i++ {
		r, _ := reqs.Create(ctx, &reqmodel.Request{Type: reqmodel.TypeMedic, ItemName: "x", UserID: "me"})
		mine = append(mine, r)
	}
	_ = reqs.UpdateStatus(ctx, mine[0].ID, reqmodel.StatusFulfilled)
	other, _ := reqs.Create(ctx, &reqmodel.Request{Type: reqmodel.TypeBlood, ItemName: "O+", UserID: "them"})
	_ = reqs.Respond(ctx, other.ID, reqmodel.Response{ProviderID: "me"})
	_ = reqs.Respond(ctx, other.ID, reqmodel.Response{ProviderID: "me"})

	profiles := NewProfiles(store.NewMemoryProfiles(), reqs)
	st := session.State{LoggedIn: true, Role: model.RoleProvider, Identity: &session.Identity{ID: "me"}}
	act, err := profiles.Activity(ctx, st)
	if err != nil {
		t.Fatal(err)
	}
	want := model.Stats{RequestsMade: 6, ResponsesGiven: 1, RequestsFulfilled: 1}
	if act.Stats != want {
		t.Fatalf("stats = %+v, want %+v", act.Stats, want)
	}
	if len(act.Recent) != 5 || act.Recent[0].ID != mine[5].ID {
		t.Fatalf("recent = %d items", len(act.Recent))
	}

	if _, err := profiles.Activity(ctx, session.State{}); !errors.Is(err, errs.ErrNotLoggedIn) {
		t.Fatalf("signed-out err = %v", err)
	}
}
