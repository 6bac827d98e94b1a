package service

import (
	"context"
	"errors"
	"testing"

	"HealthSeva/module/hospital/model"
	"HealthSeva/module/hospital/store"
	usermodel "HealthSeva/module/user/model"
	"HealthSeva/module/user/session"
	"HealthSeva/tools/errs"
)

func state(id string, admin bool) session.State {
	return session.State{LoggedIn: true, Role: usermodel.RoleProvider, Admin: admin, Identity: &session.Identity{ID: id}}
}

func TestHospitalDirectory(t *testing.T) {
	svc := New(store.NewMemoryStore())
	ctx := context.Background()

	h, err := svc.Create(ctx, state("p1", false), CreateParams{
		Name:     " Red Cross ",
		Address:  "Main St",
		Location: &model.Location{Lat: 27.7, Lng: 85.3},
	})
	if err != nil {
		t.Fatal(err)
	}
	if h.Name != "Red Cross" || h.ProviderID != "p1" || h.Location == nil || h.CreatedAt.IsZero() {
		t.Fatalf("created = %+v", h)
	}
	if _, err := svc.Create(ctx, state("p1", false), CreateParams{}); !errors.Is(err, errs.ErrArgs) {
		t.Fatalf("nameless = %v", err)
	}
	if _, err := svc.Create(ctx, session.State{}, CreateParams{Name: "x"}); !errors.Is(err, errs.ErrNotLoggedIn) {
		t.Fatalf("anonymous = %v", err)
	}

	if err := svc.Delete(ctx, state("p1", false), h.ID); !errors.Is(err, errs.ErrNoPermission) {
		t.Fatalf("provider delete = %v", err)
	}
	if err := svc.Delete(ctx, state("root", true), h.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, state("root", true), h.ID); !errors.Is(err, errs.ErrRecordNotFound) {
		t.Fatalf("second delete = %v", err)
	}
}

func TestListDegrades(t *testing.T) {
	st := store.NewMemoryStore()
	st.SetFailure(errs.ErrTransport.Wrap())
	if list := New(st).List(context.Background()); list == nil || len(list) != 0 {
		t.Fatalf("list = %v", list)
	}
}
