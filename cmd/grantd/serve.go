package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	grantgin "github.com/open-rails/grantkit/adapters/gin"
	"github.com/open-rails/grantkit/adapters/ginutil"
	"github.com/open-rails/grantkit/config"
	"github.com/open-rails/grantkit/core"
	rivernotify "github.com/open-rails/grantkit/notify/river"
	memorylimiter "github.com/open-rails/grantkit/ratelimit/memory"
	redislimiter "github.com/open-rails/grantkit/ratelimit/redis"
	"github.com/open-rails/grantkit/sched"
	pgstore "github.com/open-rails/grantkit/storage/postgres"
	redisstore "github.com/open-rails/grantkit/storage/redis"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the sweep schedule, and the notification worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := logrus.New()
		ctx := cmd.Context()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store := pgstore.New(pool, cfg.Schema)

		var rdb *redis.Client
		if cfg.RedisURL != "" {
			opt, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				return err
			}
			rdb = redis.NewClient(opt)
			defer rdb.Close()
		}

		var notifier core.Notifier = core.LogNotifier{Log: log}
		var riverClient *river.Client[pgx.Tx]
		if cfg.NotifyQueue {
			workers := river.NewWorkers()
			rivernotify.AddWorker(workers, rivernotify.LogSender{Log: log})
			riverClient, err = river.NewClient(riverpgxv5.New(pool), &river.Config{
				Queues:  map[string]river.QueueConfig{river.QueueDefault: {MaxWorkers: 4}},
				Workers: workers,
			})
			if err != nil {
				return err
			}
			if err := riverClient.Start(ctx); err != nil {
				return err
			}
			notifier = rivernotify.NewNotifier(riverClient)
		}

		svc, err := core.New(core.Config{
			DB:            store,
			Grants:        store.Grants(),
			Verifications: store.Verifications(),
			Targets:       []core.TargetStore{store.Ads(), store.Users()},
			Prices:        store.Prices(),
			Notifier:      notifier,
			Logger:        log,
			Metrics:       core.NewMetrics(prometheus.DefaultRegisterer),
		})
		if err != nil {
			return err
		}

		var rl ginutil.RateLimiter
		if rdb != nil {
			rl = redislimiter.New(rdb, map[string]redislimiter.Limit{
				ginutil.RLPromotionApply:     {Limit: 20, Window: time.Minute},
				ginutil.RLVerificationSubmit: {Limit: 5, Window: time.Hour},
				"default":                    {Limit: 60, Window: time.Minute},
			})
		} else {
			rl = memorylimiter.New(map[string]memorylimiter.Limit{
				ginutil.RLPromotionApply:     {Limit: 20, Window: time.Minute},
				ginutil.RLVerificationSubmit: {Limit: 5, Window: time.Hour},
				"default":                    {Limit: 60, Window: time.Minute},
			})
		}

		router := gin.New()
		router.Use(gin.Recovery())
		grantgin.Mount(router, svc, rl)
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

		var lock sched.Locker
		if rdb != nil {
			lock = redisstore.NewSweepLock(rdb, "", cfg.SweepRunTimeout+time.Minute)
		}
		runner := sched.New(svc, sched.Config{
			PromotionInterval:    cfg.PromotionSweepInterval,
			VerificationInterval: cfg.VerificationSweepInterval,
			OrphanInterval:       cfg.OrphanSweepInterval,
			RunTimeout:           cfg.SweepRunTimeout,
			Lock:                 lock,
			Logger:               log,
		})
		if err := runner.Start(); err != nil {
			return err
		}

		srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
		log.WithField("addr", cfg.HTTPAddr).Info("grantd listening")

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case sig := <-stop:
			log.WithField("signal", sig.String()).Info("shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("http shutdown")
		}
		<-runner.Stop().Done()
		if riverClient != nil {
			if err := riverClient.Stop(shutdownCtx); err != nil {
				log.WithError(err).Warn("river shutdown")
			}
		}
		return nil
	},
}
