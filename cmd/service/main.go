package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/memberbridge/internal/config"
	"github.com/dropDatabas3/memberbridge/internal/http/v2/server"
	"github.com/dropDatabas3/memberbridge/internal/observability/logger"
)

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}

func printConfigSummary(c *config.Config) {
	fmt.Printf(`env=%s addr=%s
bridge.base_url=%s bridge.shared_secret=%s insecure_secret=%t
routes.prefix=%s signin=%s welcome=%s home=%s
session.cookie=%s domain=%q secure=%t
store.driver=%s timeout=%s
rate.enabled=%t driver=%s max=%d window=%s
smtp.host=%q tls=%s metrics=%t
`,
		c.App.Env, c.Server.Addr,
		c.Bridge.BaseURL, maskSecret(c.Bridge.SharedSecret), c.InsecureSecret(),
		c.Routes.Prefix, c.Routes.SigninPath, c.Routes.WelcomePath, c.Routes.HomePath,
		c.Session.CookieName, c.Session.Domain, c.Session.Secure,
		c.Store.Driver, c.Store.Timeout,
		c.Rate.Enabled, c.Rate.Driver, c.Rate.MaxRequests, c.Rate.Window,
		c.SMTP.Host, c.SMTP.TLSMode, c.Metrics.Enabled,
	)
}

func main() {
	var (
		flagConfigPath = flag.String("config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml)")
		flagEnvFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
		flagPrint      = flag.Bool("print-config", false, "imprime config efectiva y termina")
	)
	flag.Parse()

	if fileExists(*flagEnvFile) {
		if err := godotenv.Load(*flagEnvFile); err == nil {
			log.Printf("dotenv: cargado %s", *flagEnvFile)
		}
	}

	cfgPath := *flagConfigPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath == "" && fileExists("configs/config.yaml") {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *flagPrint {
		printConfigSummary(cfg)
		return
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "memberbridge"})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	if cfg.InsecureSecret() {
		lg.Error("!!! INSECURE SHARED SECRET: SHARED_JWT_SECRET is unset, bridge assertions and sessions are forgeable. Never run like this in production !!!")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := server.BuildV2Handler(logger.ToContext(ctx, lg), cfg, server.Options{})
	if err != nil {
		lg.Fatal("build handler", logger.Err(err))
	}
	defer func() {
		if err := cleanup(); err != nil {
			lg.Warn("cleanup", logger.Err(err))
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("service up",
			logger.String("addr", cfg.Server.Addr),
			logger.String("prefix", cfg.Routes.Prefix),
			logger.String("env", cfg.App.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		lg.Info("shutting down")
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		lg.Error("http", logger.Err(err))
	}
}
