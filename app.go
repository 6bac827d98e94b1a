package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"HealthSeva/data/database"
	"HealthSeva/global/config"
	"HealthSeva/logger"
	"HealthSeva/middleware"
	midsec "HealthSeva/middleware/security"
	"HealthSeva/module/analytics"
	"HealthSeva/module/hospital"
	hospitalservice "HealthSeva/module/hospital/service"
	hospitalstore "HealthSeva/module/hospital/store"
	"HealthSeva/module/post"
	postservice "HealthSeva/module/post/service"
	poststore "HealthSeva/module/post/store"
	"HealthSeva/module/request"
	"HealthSeva/module/request/feed"
	reqservice "HealthSeva/module/request/service"
	reqstore "HealthSeva/module/request/store"
	"HealthSeva/module/user"
	"HealthSeva/module/user/service"
	"HealthSeva/module/user/session"
	userstore "HealthSeva/module/user/store"
	"HealthSeva/service/health"
	"HealthSeva/service/live"
	mgoSrv "HealthSeva/service/mgo"
	"HealthSeva/service/natsx"
	"HealthSeva/service/registry"
	"HealthSeva/service/storage"
	"HealthSeva/tools/errs"
	"HealthSeva/tools/safe"
	"HealthSeva/tools/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const maxBody = 1 << 20

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

type app struct {
	cfg     *config.AppConfig
	engine  *gin.Engine
	hub     *feed.Hub
	sources []feed.Source
	conns   *live.Manager
	monitor *health.Monitor
	admins  *session.AllowList
	svcMgr  *registry.ServiceManager
	indexes []indexer
}

type stores struct {
	requests  reqstore.Store
	profiles  userstore.ProfileStore
	history   userstore.SessionLog
	posts     poststore.Store
	hospitals hospitalstore.Store
	watcher   reqstore.Watcher
	indexes   []indexer
}

func buildStores(cfg *config.AppConfig) stores {
	if cfg.Store == config.StoreMemory {
		return stores{
			requests:  reqstore.NewMemoryStore(),
			profiles:  userstore.NewMemoryProfiles(),
			history:   &userstore.MemorySessionLog{},
			posts:     poststore.NewMemoryStore(),
			hospitals: hospitalstore.NewMemoryStore(),
		}
	}
	db := database.DBProvider(mgoSrv.TryGetDB)
	reqs := reqstore.NewMongoStore(db)
	profiles := userstore.NewMongoProfiles(db)
	history := userstore.NewMongoSessionLog(db)
	posts := poststore.NewMongoStore(db)
	hospitals := hospitalstore.NewMongoStore(db)
	return stores{
		requests:  reqs,
		profiles:  profiles,
		history:   history,
		posts:     posts,
		hospitals: hospitals,
		watcher:   reqs,
		indexes:   []indexer{reqs, profiles, history, posts, hospitals},
	}
}

func build(ctx context.Context, cfg *config.AppConfig, infra *config.Infra) (*app, error) {
	a := &app{cfg: cfg, admins: session.NewAllowList(cfg.Admins...)}
	st := buildStores(cfg)
	a.indexes = st.indexes

	var (
		profiles userstore.ProfileStore  = st.profiles
		tokens   userstore.TokenRegistry = userstore.NewMemoryTokens()
		presence storage.Presence        = storage.NewMemoryPresence()
		pubs     []reqservice.Publisher
	)
	if infra.Redis != nil {
		profiles = userstore.NewCachedProfiles(st.profiles, infra.Redis, cfg.Redis.CacheTTL)
		tokens = userstore.NewRedisTokens(infra.Redis)
		presence = storage.NewRedisPresence(infra.Redis)
	}
	if infra.Audit != nil {
		pubs = append(pubs, reqservice.NewAudit(infra.Audit))
	}

	a.hub = feed.NewHub(st.requests, cfg.Feed.Debounce)
	switch cfg.Feed.Source {
	case config.FeedSourceMongo:
		a.sources = append(a.sources, feed.WatchSource{W: st.watcher, Backoff: time.Second})
	case config.FeedSourceNats:
		bridge, err := feed.NewNatsBridge(cfg.InstanceID, cfg.Nats.Subject, natsx.NewMemIdem(ctx, 5*time.Minute), 5*time.Minute)
		if err != nil {
			return nil, err
		}
		a.sources = append(a.sources, bridge)
		pubs = append(pubs, bridge)
	}

	jwtOpts := security.Options{
		Secret: []byte(cfg.JWT.Secret),
		Alg:    cfg.JWT.Alg,
		TTL:    cfg.JWT.TTL,
		Issuer: cfg.JWT.Issuer,
	}
	identity := service.NewIdentity(jwtOpts, profiles, tokens, st.history)
	auth := midsec.DefaultOptions(identity, profiles, a.admins)

	requests := reqservice.New(st.requests, a.hub, cfg.InstanceID, pubs...)
	a.conns = live.NewManager(live.Conf{
		UnauthTTL:    cfg.Live.UnauthTTL,
		PingInterval: cfg.Live.PingInterval,
		PresenceTTL:  cfg.Live.PresenceTTL,
		MaxPerUser:   cfg.Live.MaxPerUser,
		MaxMessage:   cfg.Live.MaxMessage,
	}, presence)

	checks := map[string]health.Check{}
	if cfg.Store == config.StoreMongo {
		checks["mongo"] = func(context.Context) error {
			if mgoSrv.Healthy() {
				return nil
			}
			if err := mgoSrv.Err(); err != nil {
				return err
			}
			return errs.ErrTransport.WrapMsg("mongo not connected")
		}
	}
	if infra.Redis != nil {
		rdb := infra.Redis
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	a.monitor = health.NewMonitor(5*time.Second, checks)

	svcMgr, err := config.NewServiceManager(cfg, a.monitor.Healthy)
	if err != nil {
		return nil, err
	}
	a.svcMgr = svcMgr
	var peers analytics.PeerLister
	if svcMgr != nil {
		peers = svcMgr
	}

	origins := middleware.Origins(cfg.AllowedOrigins)
	middleware.Manager().Add(middleware.RequestID())
	middleware.Manager().Add(middleware.MaxBody(maxBody))

	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logger(), middleware.Origin(origins), middleware.Manager().Use())
	r.GET("/health", a.health)

	rt := middleware.Router{R: r.Group("/api"), Auth: auth}
	ws := request.NewWS(requests, auth, a.conns, identity.SignOut, origins.CheckOrigin)
	request.NewHandler(requests, ws).Register(rt, r)
	user.NewHandler(identity, service.NewProfiles(profiles, st.requests)).Register(rt)
	post.NewHandler(postservice.New(st.posts)).Register(rt)
	hospital.NewHandler(hospitalservice.New(st.hospitals)).Register(rt)
	analytics.NewHandler(analytics.New(st.requests, profiles, presence, peers)).Register(rt)
	a.engine = r
	return a, nil
}

// start launches the background loops; they all stop with ctx.
func (a *app) start(ctx context.Context) {
	safe.SafeGo("feed-hub", func() { a.hub.Run(ctx) })
	for _, src := range a.sources {
		src := src
		safe.SafeGo("feed-source", func() {
			if err := src.Run(ctx, a.hub.Notify); err != nil {
				logger.Error("[Feed] source stopped", zap.Error(err))
			}
		})
	}
	safe.SafeGo("live-sweep", func() { a.conns.Run(ctx) })
	safe.SafeGo("health", func() { a.monitor.Run(ctx) })

	if len(a.indexes) > 0 {
		safe.SafeGo("mongo-indexes", func() {
			select {
			case <-ctx.Done():
				return
			case <-mgoSrv.Ready():
			}
			for _, ix := range a.indexes {
				if err := ix.EnsureIndexes(ctx); err != nil {
					logger.Warn("[Mongo] ensure indexes", zap.Error(err))
				}
			}
		})
	}

	gs := grpc.NewServer()
	a.monitor.Register(gs)
	addr := ":" + strconv.Itoa(a.cfg.GRPCPort)
	safe.SafeGo("grpc", func() {
		if err := health.ServeGRPC(ctx, addr, gs); err != nil {
			logger.Error("[gRPC] server failed", zap.Error(err))
		}
	})

	config.RunService(ctx, a.svcMgr)

	if a.cfg.Nacos.Enabled {
		err := config.WatchDynamic(ctx, a.cfg, func(d config.Dynamic) {
			if d.Admins != nil {
				a.admins.Replace(d.Admins)
				logger.Info("[Nacos] admin list reloaded", zap.Int("entries", len(d.Admins)))
			}
		})
		if err != nil {
			logger.Warn("[Nacos] dynamic config unavailable", zap.Error(err))
		}
	}
}

func (a *app) health(c *gin.Context) {
	ok, checks := a.monitor.Snapshot()
	conns, users := a.conns.Stats()
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"ok":          ok,
		"checks":      checks,
		"connections": conns,
		"online":      users,
		"subscribers": a.hub.Subscribers(),
	})
}
