package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"HealthSeva/global"
	"HealthSeva/middleware"
	midsec "HealthSeva/middleware/security"
	reqstore "HealthSeva/module/request/store"
	"HealthSeva/module/user/service"
	"HealthSeva/module/user/session"
	"HealthSeva/module/user/store"
	"HealthSeva/tools/security"

	"github.com/gin-gonic/gin"
)

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	profiles := store.NewMemoryProfiles()
	identity := service.NewIdentity(security.DefaultOptions([]byte("k")), profiles, store.NewMemoryTokens(), &store.MemorySessionLog{})
	auth := midsec.DefaultOptions(identity, profiles, session.NewAllowList("root@example.org"))

	r := gin.New()
	NewHandler(identity, service.NewProfiles(profiles, reqstore.NewMemoryStore())).
		Register(middleware.Router{R: r.Group("/api"), Auth: auth})
	return r
}

func do(r *gin.Engine, method, path, token string, body any) (int, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Token", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var msg global.Msg
	_ = json.Unmarshal(w.Body.Bytes(), &msg)
	data, _ := msg.Data.(map[string]any)
	return w.Code, data
}

func TestSignInResolvesSession(t *testing.T) {
	r := newEngine(t)

	code, data := do(r, http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "Root@Example.org", "role": "provider"})
	if code != http.StatusOK {
		t.Fatalf("signin = %d", code)
	}
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("no token")
	}

	_, me := do(r, http.MethodGet, "/api/me", token, nil)
	if me["isLoggedIn"] != true || me["role"] != "PROVIDER" || me["isAdmin"] != true {
		t.Fatalf("me = %v", me)
	}

	if code, _ := do(r, http.MethodPost, "/api/auth/signout", token, nil); code != http.StatusOK {
		t.Fatalf("signout = %d", code)
	}
	if code, _ := do(r, http.MethodGet, "/api/me", token, nil); code != http.StatusUnauthorized {
		t.Fatalf("me after signout = %d", code)
	}
}

func TestSignInRequiresEmail(t *testing.T) {
	r := newEngine(t)
	if code, _ := do(r, http.MethodPost, "/api/auth/signin", "", map[string]string{"role": "USER"}); code != http.StatusBadRequest {
		t.Fatalf("code = %d", code)
	}
}

func TestProfileUpdateAndActivity(t *testing.T) {
	r := newEngine(t)
	_, data := do(r, http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "ana@example.org", "bloodType": "B+"})
	token := data["token"].(string)

	_, p := do(r, http.MethodGet, "/api/profile", token, nil)
	if p["bloodType"] != "B+" || p["role"] != "USER" || p["name"] != "ana" {
		t.Fatalf("profile = %v", p)
	}

	_, p = do(r, http.MethodPatch, "/api/profile", token, map[string]string{"allergies": "penicillin"})
	if p["allergies"] != "penicillin" || p["bloodType"] != "B+" {
		t.Fatalf("updated = %v", p)
	}

	code, a := do(r, http.MethodGet, "/api/profile/activity", token, nil)
	if code != http.StatusOK {
		t.Fatalf("activity = %d", code)
	}
	if stats, _ := a["stats"].(map[string]any); stats == nil {
		t.Fatalf("activity = %v", a)
	}

	if code, _ := do(r, http.MethodGet, "/api/profile", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous profile = %d", code)
	}
}
