package request

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"HealthSeva/logger"
	midsec "HealthSeva/middleware/security"
	"HealthSeva/module/request/feed"
	"HealthSeva/module/request/model"
	"HealthSeva/module/request/service"
	usermodel "HealthSeva/module/user/model"
	"HealthSeva/module/user/session"
	"HealthSeva/service/live"
	"HealthSeva/tools/errs"
	"HealthSeva/tools/safe"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// frame types
const (
	FrameAuth     = "auth"
	FrameDismiss  = "dismiss"
	FrameSignOut  = "signout"
	FramePing     = "ping"
	FramePong     = "pong"
	FrameSnapshot = "snapshot"
	FrameSession  = "session"
	FrameError    = "error"
)

// Frame is the JSON envelope in both directions.
type Frame struct {
	Type     string           `json:"type"`
	Token    string           `json:"token,omitempty"`
	Role     string           `json:"role,omitempty"` // optional hint on auth
	ID       string           `json:"id,omitempty"`
	Seq      uint64           `json:"seq,omitempty"`
	Requests []*model.Request `json:"requests,omitempty"`
	Session  *session.State   `json:"session,omitempty"`
	Code     int              `json:"code,omitempty"`
	Msg      string           `json:"msg,omitempty"`
}

// snapshotFrame always carries the requests key, empty or not.
type snapshotFrame struct {
	Type     string           `json:"type"`
	Seq      uint64           `json:"seq"`
	Requests []*model.Request `json:"requests"`
}

func newSnapshotFrame(snap feed.Snapshot) snapshotFrame {
	list := snap.Requests
	if list == nil {
		list = []*model.Request{}
	}
	return snapshotFrame{Type: FrameSnapshot, Seq: snap.Seq, Requests: list}
}

// WS serves the live request feed. Each connection owns a session and a
// subscription; identity events arrive as auth and signout frames.
type WS struct {
	svc      *service.Requests
	auth     *midsec.Options
	conns    *live.Manager
	signOut  func(ctx context.Context, token string) error
	upgrader websocket.Upgrader
}

func NewWS(svc *service.Requests, auth *midsec.Options, conns *live.Manager,
	signOut func(ctx context.Context, token string) error, checkOrigin func(*http.Request) bool) *WS {
	return &WS{
		svc:     svc,
		auth:    auth,
		conns:   conns,
		signOut: signOut,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

type wsClient struct {
	w     *WS
	conn  *live.Conn
	sess  *session.Session
	sub   *feed.Subscription
	token string
}

func (w *WS) Serve(c *gin.Context) {
	ws, err := w.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Info("[WS] upgrade failed", zap.Error(err))
		return
	}
	conn := w.conns.Accept(ws)
	w.conns.PrepareRead(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := w.svc.Subscribe()
	if err != nil {
		_ = conn.Send(ctx, Frame{Type: FrameError, Code: errs.Code(err), Msg: "live feed unavailable"})
		w.conns.Remove(ctx, conn)
		return
	}
	defer sub.Close()

	cl := &wsClient{w: w, conn: conn, sub: sub}
	cl.sess = session.New(w.auth.Profiles, w.auth.Policy, func(ctx context.Context) error {
		if cl.token == "" || w.signOut == nil {
			return nil
		}
		return w.signOut(ctx, cl.token)
	})
	stop := cl.sess.OnChange(func(st session.State) {
		if !st.Loading {
			if st.LoggedIn && st.Identity != nil {
				w.conns.Bind(ctx, conn, st.Identity.ID)
			} else {
				w.conns.Unbind(ctx, conn)
			}
		}
		_ = conn.Send(ctx, Frame{Type: FrameSession, Session: &st})
	})
	defer stop()

	safe.SafeGo("ws-feed-"+conn.ID, func() {
		for snap := range sub.C {
			if err := conn.Send(ctx, newSnapshotFrame(snap)); err != nil {
				return
			}
		}
	})

	if token := w.auth.Token(c); token != "" {
		cl.authenticate(ctx, token, "")
	}
	cl.readLoop(ctx)

	w.conns.Remove(context.Background(), conn)
}

func (cl *wsClient) readLoop(ctx context.Context) {
	for {
		mt, data, err := cl.conn.ReadMessage()
		if err != nil {
			var ne net.Error
			switch {
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
				logger.Debug("[WS] peer closed", zap.String("conn", cl.conn.ID))
			case errors.As(err, &ne) && ne.Timeout():
				logger.Info("[WS] read timeout", zap.String("conn", cl.conn.ID))
			default:
				logger.Debug("[WS] read error", zap.String("conn", cl.conn.ID), zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			cl.fail(ctx, errs.ErrArgs.WrapMsg("bad frame"))
			continue
		}
		cl.handle(ctx, f)
	}
}

func (cl *wsClient) handle(ctx context.Context, f Frame) {
	switch f.Type {
	case FrameAuth:
		cl.authenticate(ctx, f.Token, f.Role)
	case FrameDismiss:
		if f.ID == "" {
			cl.fail(ctx, errs.ErrArgs.WrapMsg("dismiss needs id"))
			return
		}
		if err := cl.w.svc.Dismiss(cl.sess.State(), cl.sub, f.ID); err != nil {
			cl.fail(ctx, err)
		}
	case FrameSignOut:
		if err := cl.sess.Logout(ctx); err != nil {
			logger.Warn("[WS] sign-out failed", zap.String("conn", cl.conn.ID), zap.Error(err))
		}
		cl.token = ""
	case FramePing:
		_ = cl.conn.Send(ctx, Frame{Type: FramePong})
	default:
		cl.fail(ctx, errs.ErrArgs.WrapMsg("unknown frame", "type", f.Type))
	}
}

// authenticate verifies token and raises the identity event. A non-empty
// role is shown as a hint while the profile resolves. A bad token signs the
// connection out.
func (cl *wsClient) authenticate(ctx context.Context, token, role string) {
	if role != "" {
		cl.sess.Login(usermodel.ParseRole(role))
	}
	vctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ident, err := cl.w.auth.Verifier.Verify(vctx, token)
	if err != nil {
		cl.fail(ctx, err)
		cl.token = ""
		cl.sess.IdentityChanged(vctx, nil)
		return
	}
	cl.token = token
	cl.sess.IdentityChanged(vctx, ident)
}

func (cl *wsClient) fail(ctx context.Context, err error) {
	ce := errs.AsCode(err)
	_ = cl.conn.Send(ctx, Frame{Type: FrameError, Code: ce.Code, Msg: ce.Msg})
}
