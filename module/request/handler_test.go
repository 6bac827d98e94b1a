package request

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"HealthSeva/global"
	"HealthSeva/middleware"
	midsec "HealthSeva/middleware/security"
	"HealthSeva/module/request/feed"
	"HealthSeva/module/request/model"
	"HealthSeva/module/request/service"
	"HealthSeva/module/request/store"
	usermodel "HealthSeva/module/user/model"
	userservice "HealthSeva/module/user/service"
	"HealthSeva/module/user/session"
	userstore "HealthSeva/module/user/store"
	"HealthSeva/service/live"
	"HealthSeva/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func init() { gin.SetMode(gin.TestMode) }

type env struct {
	t        *testing.T
	engine   *gin.Engine
	srv      *httptest.Server
	store    *store.MemoryStore
	identity *userservice.Identity
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	st := store.NewMemoryStore()
	hub := feed.NewHub(st, 0)
	go hub.Run(ctx)
	svc := service.New(st, hub, "test")

	profiles := userstore.NewMemoryProfiles()
	identity := userservice.NewIdentity(security.DefaultOptions([]byte("k")), profiles, userstore.NewMemoryTokens(), nil)
	auth := midsec.DefaultOptions(identity, profiles, session.NewAllowList("admin@example.org"))
	conns := live.NewManager(live.Conf{}, nil)
	go conns.Run(ctx)

	r := gin.New()
	api := r.Group("/api")
	ws := NewWS(svc, auth, conns, identity.SignOut, middleware.Origins(nil).CheckOrigin)
	NewHandler(svc, ws).Register(middleware.Router{R: api, Auth: auth}, r)

	e := &env{t: t, engine: r, store: st, identity: identity}
	e.srv = httptest.NewServer(r)
	t.Cleanup(e.srv.Close)
	return e
}

func (e *env) signIn(email string, role usermodel.Role) string {
	e.t.Helper()
	res, err := e.identity.SignIn(context.Background(), userservice.SignInParams{Email: email, Role: role})
	if err != nil {
		e.t.Fatal(err)
	}
	return res.Token
}

func (e *env) call(method, path, token string, body any) (int, global.Msg) {
	e.t.Helper()
	code, raw := e.callRaw(method, path, token, body)
	var msg global.Msg
	_ = json.Unmarshal(raw, &msg)
	return code, msg
}

func (e *env) callRaw(method, path, token string, body any) (int, []byte) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w.Code, w.Body.Bytes()
}

func decode[T any](t *testing.T, data any) T {
	t.Helper()
	b, _ := json.Marshal(data)
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t)
	alice := e.signIn("alice@example.org", usermodel.RoleUser)
	p1 := e.signIn("p1@example.org", usermodel.RoleProvider)
	admin := e.signIn("admin@example.org", usermodel.RoleUser)

	code, msg := e.call(http.MethodPost, "/api/requests", alice, map[string]string{
		"type": "blood", "itemName": "O+", "urgency": "high", "userName": "Alice",
	})
	if code != http.StatusOK {
		t.Fatalf("create = %d %+v", code, msg)
	}
	created := decode[model.Request](t, msg.Data)
	if created.Status != model.StatusPending || created.Type != model.TypeBlood || created.Urgency != model.UrgencyHigh {
		t.Fatalf("created = %+v", created)
	}

	if code, _ := e.call(http.MethodPost, "/api/requests/"+created.ID+"/respond", alice, map[string]string{}); code != http.StatusForbidden {
		t.Fatalf("user respond = %d", code)
	}
	if code, msg := e.call(http.MethodPost, "/api/requests/"+created.ID+"/respond", p1, map[string]string{"name": "City Hospital"}); code != http.StatusOK {
		t.Fatalf("provider respond = %d %+v", code, msg)
	}
	if code, _ := e.call(http.MethodPatch, "/api/requests/"+created.ID+"/status", admin, map[string]string{"status": "fulfilled"}); code != http.StatusOK {
		t.Fatalf("admin status = %d", code)
	}

	_, msg = e.call(http.MethodGet, "/api/requests/"+created.ID, "", nil)
	got := decode[model.Request](t, msg.Data)
	if got.Status != model.StatusFulfilled || len(got.Responses) != 1 || got.Responses[0].Name != "City Hospital" {
		t.Fatalf("got = %+v", got)
	}

	if code, _ := e.call(http.MethodDelete, "/api/requests/"+created.ID, alice, nil); code != http.StatusForbidden {
		t.Fatalf("owner delete = %d", code)
	}
	if code, _ := e.call(http.MethodDelete, "/api/requests/"+created.ID, admin, nil); code != http.StatusOK {
		t.Fatalf("admin delete = %d", code)
	}
	if code, _ := e.call(http.MethodDelete, "/api/requests/"+created.ID, admin, nil); code != http.StatusNotFound {
		t.Fatalf("second delete = %d", code)
	}
}

func TestCreateChecksOnlyTypeAndItem(t *testing.T) {
	e := newEnv(t)
	alice := e.signIn("alice@example.org", usermodel.RoleUser)

	if code, _ := e.call(http.MethodPost, "/api/requests", "", map[string]string{"type": "MEDIC", "itemName": "x"}); code != http.StatusUnauthorized {
		t.Fatalf("anonymous create = %d", code)
	}
	if code, _ := e.call(http.MethodPost, "/api/requests", alice, map[string]string{"itemName": "x"}); code != http.StatusBadRequest {
		t.Fatalf("missing type = %d", code)
	}
	code, msg := e.call(http.MethodPost, "/api/requests", alice, map[string]string{"type": "MEDIC", "itemName": "Insulin"})
	if code != http.StatusOK {
		t.Fatalf("no contact = %d %+v", code, msg)
	}
	if r := decode[model.Request](t, msg.Data); r.UserContact != "" || r.Urgency != model.UrgencyMedium {
		t.Fatalf("created = %+v", r)
	}
}

func TestCreateRejectsUnknownUrgency(t *testing.T) {
	e := newEnv(t)
	alice := e.signIn("alice@example.org", usermodel.RoleUser)
	code, _ := e.call(http.MethodPost, "/api/requests", alice, map[string]string{"type": "MEDIC", "itemName": "x", "urgency": "whenever"})
	if code != http.StatusBadRequest {
		t.Fatalf("unknown urgency = %d", code)
	}
	if list, _ := e.store.List(context.Background()); len(list) != 0 {
		t.Fatalf("stored = %+v", list)
	}
	code, msg := e.call(http.MethodPost, "/api/requests", alice, map[string]string{"type": "MEDIC", "itemName": "x", "urgency": "low"})
	if r := decode[model.Request](t, msg.Data); code != http.StatusOK || r.Urgency != model.UrgencyLow {
		t.Fatalf("low = %d %+v", code, r)
	}
}

func TestNewRequestHasEmptyResponsesArray(t *testing.T) {
	e := newEnv(t)
	alice := e.signIn("alice@example.org", usermodel.RoleUser)

	code, body := e.callRaw(http.MethodPost, "/api/requests", alice, map[string]string{"type": "BLOOD", "itemName": "O+"})
	if code != http.StatusOK || !bytes.Contains(body, []byte(`"responses":[]`)) {
		t.Fatalf("create = %d %s", code, body)
	}
	_, body = e.callRaw(http.MethodGet, "/api/requests", "", nil)
	if !bytes.Contains(body, []byte(`"responses":[]`)) {
		t.Fatalf("list = %s", body)
	}
}

func TestListDegradesToEmpty(t *testing.T) {
	e := newEnv(t)
	e.store.SetFailure(context.DeadlineExceeded)
	code, msg := e.call(http.MethodGet, "/api/requests", "", nil)
	if code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if list := decode[[]model.Request](t, msg.Data); len(list) != 0 {
		t.Fatalf("list = %v", list)
	}
}

func TestViewsOverHTTP(t *testing.T) {
	e := newEnv(t)
	alice := e.signIn("alice@example.org", usermodel.RoleUser)
	bob := e.signIn("bob@example.org", usermodel.RoleUser)
	e.call(http.MethodPost, "/api/requests", alice, map[string]string{"type": "BLOOD", "itemName": "A-", "userAddress": "Pokhara"})
	e.call(http.MethodPost, "/api/requests", bob, map[string]string{"type": "MEDIC", "itemName": "Inhaler"})

	_, msg := e.call(http.MethodGet, "/api/requests/mine", bob, nil)
	if mine := decode[[]model.Request](t, msg.Data); len(mine) != 1 || mine[0].ItemName != "Inhaler" {
		t.Fatalf("mine = %+v", mine)
	}
	_, msg = e.call(http.MethodGet, "/api/requests/blood?bloodType=a-&urgency=all", "", nil)
	if b := decode[[]model.Request](t, msg.Data); len(b) != 1 {
		t.Fatalf("blood = %+v", b)
	}
	_, msg = e.call(http.MethodGet, "/api/requests/search?q=pokh", "", nil)
	if s := decode[[]model.Request](t, msg.Data); len(s) != 1 || s[0].ItemName != "A-" {
		t.Fatalf("search = %+v", s)
	}
	_, msg = e.call(http.MethodGet, "/api/requests/pending", bob, nil)
	if p := decode[[]model.Request](t, msg.Data); len(p) != 2 {
		t.Fatalf("pending = %+v", p)
	}
}

func (e *env) dial(token string) *websocket.Conn {
	e.t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws/requests"
	if token != "" {
		url += "?token=" + token
	}
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		e.t.Fatal(err)
	}
	e.t.Cleanup(func() { _ = ws.Close() })
	return ws
}

// next reads frames until one satisfies ok.
func next(t *testing.T, ws *websocket.Conn, ok func(Frame) bool) Frame {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		_ = ws.SetReadDeadline(deadline)
		var f Frame
		if err := ws.ReadJSON(&f); err != nil {
			t.Fatalf("read: %v", err)
		}
		if ok(f) {
			return f
		}
	}
}

func TestLiveFeedAndDismiss(t *testing.T) {
	e := newEnv(t)
	alice := e.signIn("alice@example.org", usermodel.RoleUser)
	p1 := e.signIn("p1@example.org", usermodel.RoleProvider)

	_, msg := e.call(http.MethodPost, "/api/requests", alice, map[string]string{"type": "BLOOD", "itemName": "O-"})
	first := decode[model.Request](t, msg.Data)

	ws := e.dial("")
	next(t, ws, func(f Frame) bool { return f.Type == FrameSnapshot && len(f.Requests) == 1 })

	// dismiss is refused until a provider signs in
	_ = ws.WriteJSON(Frame{Type: FrameDismiss, ID: first.ID})
	next(t, ws, func(f Frame) bool { return f.Type == FrameError })

	_ = ws.WriteJSON(Frame{Type: FrameAuth, Token: p1})
	st := next(t, ws, func(f Frame) bool { return f.Type == FrameSession && f.Session != nil && !f.Session.Loading })
	if !st.Session.LoggedIn || st.Session.Role != usermodel.RoleProvider {
		t.Fatalf("session = %+v", st.Session)
	}

	_ = ws.WriteJSON(Frame{Type: FrameDismiss, ID: first.ID})
	next(t, ws, func(f Frame) bool { return f.Type == FrameSnapshot && len(f.Requests) == 0 })

	_, msg = e.call(http.MethodPost, "/api/requests", alice, map[string]string{"type": "MEDIC", "itemName": "Insulin"})
	second := decode[model.Request](t, msg.Data)
	f := next(t, ws, func(f Frame) bool { return f.Type == FrameSnapshot && len(f.Requests) == 1 })
	if f.Requests[0].ID != second.ID {
		t.Fatalf("dismissed request came back: %+v", f.Requests)
	}

	// another subscriber still sees both
	other := e.dial("")
	next(t, other, func(f Frame) bool { return f.Type == FrameSnapshot && len(f.Requests) == 2 })

	_ = ws.WriteJSON(Frame{Type: FrameSignOut})
	out := next(t, ws, func(f Frame) bool { return f.Type == FrameSession && f.Session != nil && !f.Session.LoggedIn })
	if out.Session.Role != usermodel.RoleUser || out.Session.Admin {
		t.Fatalf("signed-out session = %+v", out.Session)
	}
	if _, err := e.identity.Verify(context.Background(), p1); err == nil {
		t.Fatal("token still valid after websocket sign-out")
	}
}

func TestWSPing(t *testing.T) {
	e := newEnv(t)
	ws := e.dial("")
	_ = ws.WriteJSON(Frame{Type: FramePing})
	next(t, ws, func(f Frame) bool { return f.Type == FramePong })
}

// rawFrame reads frames until one of type typ arrives and returns its bytes.
func rawFrame(t *testing.T, ws *websocket.Conn, typ string) []byte {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var f Frame
		if json.Unmarshal(data, &f) == nil && f.Type == typ {
			return data
		}
	}
}

func TestEmptySnapshotCarriesRequestsKey(t *testing.T) {
	e := newEnv(t)
	ws := e.dial("")
	data := rawFrame(t, ws, FrameSnapshot)
	if !bytes.Contains(data, []byte(`"requests":[]`)) {
		t.Fatalf("snapshot = %s", data)
	}
}

func TestAuthRoleHintWhileResolving(t *testing.T) {
	e := newEnv(t)
	tok := e.signIn("alice@example.org", usermodel.RoleUser)
	ws := e.dial("")

	_ = ws.WriteJSON(Frame{Type: FrameAuth, Token: tok, Role: "provider"})
	hint := next(t, ws, func(f Frame) bool { return f.Type == FrameSession && f.Session != nil && f.Session.Loading })
	if !hint.Session.LoggedIn || hint.Session.Role != usermodel.RoleProvider {
		t.Fatalf("resolving session = %+v", hint.Session)
	}
	done := next(t, ws, func(f Frame) bool { return f.Type == FrameSession && f.Session != nil && !f.Session.Loading })
	if !done.Session.LoggedIn || done.Session.Role != usermodel.RoleUser || done.Session.Identity == nil {
		t.Fatalf("resolved session = %+v", done.Session)
	}
}
