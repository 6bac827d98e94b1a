package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"HealthSeva/module/user/model"
	"HealthSeva/module/user/store"
	"HealthSeva/tools/errs"
)

var alice = &Identity{ID: "u-alice", Email: "alice@example.org", Name: "Alice"}

func TestProfileRoleDecides(t *testing.T) {
	profiles := store.NewMemoryProfiles()
	ctx := context.Background()
	_, _ = profiles.SignIn(ctx, &model.Profile{ID: alice.ID, Role: model.RoleProvider})

	s := New(profiles, NewAllowList(), nil)
	s.Login(model.RoleUser)
	st := s.IdentityChanged(ctx, alice)
	if !st.LoggedIn || st.Role != model.RoleProvider || st.Admin || st.Loading {
		t.Fatalf("state = %+v", st)
	}
}

func TestLoginHintShowsWhileResolving(t *testing.T) {
	ctx := context.Background()
	profiles := store.NewMemoryProfiles()
	_, _ = profiles.SignIn(ctx, &model.Profile{ID: alice.ID, Role: model.RoleUser})

	s := New(profiles, nil, nil)
	var seen []State
	s.OnChange(func(st State) { seen = append(seen, st) })

	s.Login(model.RoleProvider)
	hint := s.State()
	if !hint.LoggedIn || !hint.Loading || hint.Role != model.RoleProvider {
		t.Fatalf("hinted state = %+v", hint)
	}
	if err := hint.RequireRole(model.RoleProvider); err == nil {
		t.Fatal("hint alone passed the role gate")
	}

	st := s.IdentityChanged(ctx, alice)
	if st.Role != model.RoleUser || st.Loading {
		t.Fatalf("resolved state = %+v", st)
	}
	if len(seen) != 3 || !seen[1].Loading || seen[1].Role != model.RoleProvider || seen[1].Identity == nil {
		t.Fatalf("transitions = %+v", seen)
	}
}

func TestAbsentProfileIsUser(t *testing.T) {
	s := New(store.NewMemoryProfiles(), nil, nil)
	s.Login(model.RoleProvider)
	st := s.IdentityChanged(context.Background(), alice)
	if !st.LoggedIn || st.Role != model.RoleUser {
		t.Fatalf("state = %+v", st)
	}
}

func TestLookupFailureKeepsSignedInAsUser(t *testing.T) {
	profiles := store.NewMemoryProfiles()
	profiles.SetFailure(errs.ErrTransport.WrapMsg("down"))
	s := New(profiles, nil, nil)
	st := s.IdentityChanged(context.Background(), alice)
	if !st.LoggedIn || st.Role != model.RoleUser || st.Loading {
		t.Fatalf("state = %+v", st)
	}
}

func TestAdminComesFromPolicy(t *testing.T) {
	policy := NewAllowList("ALICE@example.org ")
	s := New(store.NewMemoryProfiles(), policy, nil)
	if st := s.IdentityChanged(context.Background(), alice); !st.Admin {
		t.Fatalf("want admin, got %+v", st)
	}

	policy.Replace([]string{"someone-else"})
	if st := s.IdentityChanged(context.Background(), alice); st.Admin {
		t.Fatalf("want non-admin after reload, got %+v", st)
	}

	policy.Replace([]string{alice.ID})
	if !policy.IsAdmin(*alice) {
		t.Fatal("id entries should match")
	}
}

func TestTransitionsReachObservers(t *testing.T) {
	s := New(store.NewMemoryProfiles(), nil, nil)
	var mu sync.Mutex
	var seen []State
	cancel := s.OnChange(func(st State) {
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	})

	ctx := context.Background()
	s.IdentityChanged(ctx, alice)
	s.IdentityChanged(ctx, nil)
	cancel()
	s.IdentityChanged(ctx, alice)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("saw %d transitions: %+v", len(seen), seen)
	}
	if !seen[0].Loading || !seen[0].LoggedIn {
		t.Fatalf("first transition should be resolving, got %+v", seen[0])
	}
	if seen[1].Loading || !seen[1].LoggedIn {
		t.Fatalf("second transition should be signed in, got %+v", seen[1])
	}
	if seen[2].LoggedIn || seen[2].Role != model.RoleUser || seen[2].Admin {
		t.Fatalf("third transition should be signed out, got %+v", seen[2])
	}
}

func TestLogoutAlwaysResets(t *testing.T) {
	fail := errors.New("provider unreachable")
	s := New(store.NewMemoryProfiles(), NewAllowList(alice.Email), func(context.Context) error { return fail })
	ctx := context.Background()
	s.IdentityChanged(ctx, alice)

	if err := s.Logout(ctx); !errors.Is(err, fail) {
		t.Fatalf("err = %v", err)
	}
	st := s.State()
	if st.LoggedIn || st.Admin || st.Role != model.RoleUser || st.Identity != nil {
		t.Fatalf("state after logout = %+v", st)
	}
}

// blockingLookup parks the first lookup until released.
type blockingLookup struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingLookup) Get(ctx context.Context, id string) (*model.Profile, error) {
	first := false
	b.once.Do(func() { first = true })
	if first {
		close(b.entered)
		<-b.release
		return &model.Profile{ID: id, Role: model.RoleProvider}, nil
	}
	return nil, errs.ErrRecordNotFound.Wrap()
}

func TestStaleLookupDoesNotOverwrite(t *testing.T) {
	lookup := &blockingLookup{entered: make(chan struct{}), release: make(chan struct{})}
	s := New(lookup, nil, nil)
	ctx := context.Background()

	done := make(chan State)
	go func() { done <- s.IdentityChanged(ctx, alice) }()
	<-lookup.entered

	bob := &Identity{ID: "u-bob", Email: "bob@example.org"}
	if st := s.IdentityChanged(ctx, bob); st.Identity.ID != bob.ID || st.Role != model.RoleUser {
		t.Fatalf("bob state = %+v", st)
	}
	close(lookup.release)
	<-done

	st := s.State()
	if st.Identity == nil || st.Identity.ID != bob.ID || st.Role != model.RoleUser {
		t.Fatalf("stale lookup won: %+v", st)
	}
}

func TestGates(t *testing.T) {
	out := signedOut()
	if err := out.RequireSignedIn(); !errors.Is(err, errs.ErrNotLoggedIn) {
		t.Fatalf("err = %v", err)
	}

	user := State{LoggedIn: true, Role: model.RoleUser, Identity: alice}
	if err := user.RequireRole(model.RoleProvider); !errors.Is(err, errs.ErrNoPermission) {
		t.Fatalf("err = %v", err)
	}
	if err := user.RequireAdmin(); !errors.Is(err, errs.ErrNoPermission) {
		t.Fatalf("err = %v", err)
	}
	if err := user.RequireAdminOr(alice.ID); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}
	if err := user.RequireAdminOr("someone"); !errors.Is(err, errs.ErrNoPermission) {
		t.Fatalf("err = %v", err)
	}

	admin := State{LoggedIn: true, Role: model.RoleUser, Admin: true, Identity: alice}
	if err := admin.RequireAdminOr("someone"); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
}
