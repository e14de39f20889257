// Package server arma el handler HTTP V2 a partir de la configuración.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/memberbridge/internal/bridge"
	"github.com/dropDatabas3/memberbridge/internal/config"
	"github.com/dropDatabas3/memberbridge/internal/domain/repository"
	"github.com/dropDatabas3/memberbridge/internal/email"
	"github.com/dropDatabas3/memberbridge/internal/http/v2/controllers"
	oauthctrl "github.com/dropDatabas3/memberbridge/internal/http/v2/controllers/oauth"
	mw "github.com/dropDatabas3/memberbridge/internal/http/v2/middlewares"
	"github.com/dropDatabas3/memberbridge/internal/http/v2/router"
	"github.com/dropDatabas3/memberbridge/internal/http/v2/services/health"
	oauth "github.com/dropDatabas3/memberbridge/internal/http/v2/services/oauth"
	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
	"github.com/dropDatabas3/memberbridge/internal/metrics"
	"github.com/dropDatabas3/memberbridge/internal/observability/logger"
	"github.com/dropDatabas3/memberbridge/internal/rate"
	"github.com/dropDatabas3/memberbridge/internal/store/memory"
	"github.com/dropDatabas3/memberbridge/internal/store/pg"
)

// Options permite inyectar piezas en tests. Todo es opcional.
type Options struct {
	Registry metrics.Registry           // default: registry nuevo
	Members  repository.MemberRepository // default: según store.driver
	Sender   email.Sender                // default: SMTP si smtp.host está seteado
}

// BuildV2Handler arma el handler V2 con todas las dependencias cableadas.
// El cleanup devuelto cierra pools y clientes; debe llamarse al apagar.
func BuildV2Handler(ctx context.Context, cfg *config.Config, opts Options) (http.Handler, func() error, error) {
	log := logger.From(ctx).With(logger.Layer("server"), logger.Op("BuildV2Handler"))

	var closers []func() error
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (http.Handler, func() error, error) {
		_ = cleanup()
		return nil, nil, err
	}

	// 1. Token codec (secreto compartido con el bridge)
	if cfg.InsecureSecret() {
		log.Error("SHARED_JWT_SECRET not set: using the insecure default secret, any token can be forged",
			logger.String("env", cfg.App.Env))
	}
	codec, err := jwtx.NewCodec(cfg.Bridge.SharedSecret)
	if err != nil {
		return fail(fmt.Errorf("token codec: %w", err))
	}

	// 2. Metrics
	var m *metrics.Metrics
	reg := opts.Registry
	if cfg.Metrics.Enabled {
		if reg == nil {
			reg = prometheus.NewRegistry()
		}
		if m, err = metrics.New(reg); err != nil {
			return fail(fmt.Errorf("metrics: %w", err))
		}
	}

	var checkers []health.Checker

	// 3. Member store
	members := opts.Members
	if members == nil {
		switch cfg.Store.Driver {
		case "postgres":
			st, err := pg.New(ctx, cfg.Store.DSN, pg.PoolOptions{})
			if err != nil {
				return fail(fmt.Errorf("member store: %w", err))
			}
			closers = append(closers, func() error { st.Close(); return nil })
			if m != nil {
				if err := m.RegisterPool(reg, func() *pgxpool.Pool { return st.Pool() }); err != nil {
					return fail(fmt.Errorf("metrics: %w", err))
				}
			}
			members = st.Members()
		default:
			log.Warn("using in-memory member store, members are lost on restart")
			members = memory.NewMemberStore()
		}
	}
	checkers = append(checkers, health.Checker{Name: "member_store", Critical: true, Check: members.Ping})

	// 4. Rate limiter (opcional)
	var limiter mw.RateLimiter
	if cfg.Rate.Enabled {
		switch cfg.Rate.Driver {
		case "redis":
			client := rdb.NewClient(&rdb.Options{
				Addr:     cfg.Rate.Redis.Addr,
				Password: cfg.Rate.Redis.Password,
				DB:       cfg.Rate.Redis.DB,
			})
			closers = append(closers, client.Close)
			rl := rate.NewRedisLimiter(client, cfg.Rate.Redis.Prefix, cfg.Rate.MaxRequests, cfg.Rate.Window)
			checkers = append(checkers, health.Checker{Name: "rate_limiter", Check: rl.Ping})
			limiter = rl
		default:
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window)
		}
	}

	// 5. Welcome email (opcional)
	var notifier oauth.WelcomeNotifier
	sender := opts.Sender
	if sender == nil && cfg.SMTP.Host != "" {
		s := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
		s.TLSMode = cfg.SMTP.TLSMode
		sender = s
	}
	if sender != nil {
		notifier = email.NewWelcomeNotifier(sender, cfg.SMTP.SiteName)
	}

	// 6. Services
	svcs := oauth.NewServices(oauth.Deps{
		Codec:         codec,
		Members:       members,
		BridgeBaseURL: cfg.Bridge.BaseURL,
		StoreTimeout:  cfg.Store.Timeout,
		WelcomePath:   cfg.Routes.WelcomePath,
		Notifier:      notifier,
	})

	// 7. Controllers
	ctrls := controllers.New(controllers.Deps{
		OAuth: oauthctrl.Deps{
			Services: svcs,
			Bridge:   bridge.NewClient(cfg.Bridge.BaseURL, cfg.Bridge.Timeout, nil),
			Metrics:  m,
			Settings: oauthctrl.Settings{
				SigninPath:   cfg.Routes.SigninPath,
				HomePath:     cfg.Routes.HomePath,
				CookieName:   cfg.Session.CookieName,
				CookieDomain: cfg.Session.Domain,
				CookieSecure: cfg.Session.Secure,
			},
		},
		Health: health.NewHealthService(health.Deps{Checkers: checkers}),
	})

	// 8. Router
	handler := router.New(router.Deps{
		Prefix:      cfg.Routes.Prefix,
		SigninPath:  cfg.Routes.SigninPath,
		CookieName:  cfg.Session.CookieName,
		Controllers: ctrls,
		Sessions:    svcs.Session,
		RateLimiter: limiter,
		Metrics:     m,
	})

	log.Info("v2 handler ready",
		logger.String("prefix", cfg.Routes.Prefix),
		logger.String("store", cfg.Store.Driver),
		logger.Bool("rate_limit", limiter != nil),
		logger.Bool("welcome_email", notifier != nil),
		logger.Bool("metrics", m != nil),
	)
	return handler, cleanup, nil
}
