package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/config"
	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/domain"
	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/gcal"
	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/jobs"
	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/queue"
	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/scheduler"
	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/scheduling"
	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/store"
	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	loc     *time.Location

	repo   store.Repo
	queue  *queue.Queue
	cron   *scheduler.Scheduler
	router *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv, loc: loc}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting legal-scheduler",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("tz", a.cfg.Timezone),
	)

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Per-user gateway over the shared OAuth client credentials;
	// refreshed tokens flow back into the store.
	oauth := gcal.OAuthConfig{ClientID: a.cfg.GoogleClientID, ClientSecret: a.cfg.GoogleClientSecret}
	gateways := func(ctx context.Context, user *domain.User) (gcal.Gateway, error) {
		return gcal.NewGoogle(ctx, oauth, user, repo.UpdateGoogleTokens, a.log)
	}

	a.queue = queue.New(a.log, a.cfg.QueueWorkers, a.cfg.QueueBuffer)
	a.queue.Start(ctx)

	notifier := telegram.NewNotifier(a.bot, repo, a.log, a.loc)
	factory := scheduling.NewFactory(repo, a.log)
	scanner := jobs.NewScanner(repo, factory, gateways, notifier, a.log, a.cfg.ScanWindowWeeks)
	reconciler := jobs.NewReconciler(repo, gateways, notifier, a.log)
	calSync := jobs.NewCalendarSync(repo, gateways, notifier, a.log)
	a.router = telegram.NewRouter(a.bot, repo, notifier, calSync, a.queue, a.log)

	// Cron ticks only enqueue; the queue's worker pool does the work so
	// a slow Google round-trip never delays the next tick.
	a.cron = scheduler.New(a.log, a.loc)
	crons := []struct {
		spec, name string
		run        func(ctx context.Context) error
	}{
		{a.cfg.ScanCron, "calendar_scan", scanner.Run},
		{a.cfg.ReconcileCron, "sync_deleted_events", reconciler.Run},
		{a.cfg.DailyCron, "daily_digest", notifier.RunDaily},
	}
	for _, c := range crons {
		c := c
		trigger := func(context.Context) error {
			if !a.queue.Enqueue(c.name, c.run) {
				return fmt.Errorf("enqueue %s: queue unavailable", c.name)
			}
			return nil
		}
		if err := a.cron.Add(ctx, c.spec, c.name, trigger); err != nil {
			a.log.Error("cron registration failed", zap.String("job", c.name), zap.Error(err))
			return err
		}
	}
	a.cron.Start()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown()
			return nil
		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

func (a *App) shutdown() {
	a.bot.StopReceivingUpdates()
	a.cron.Stop()
	a.queue.Stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}

	if a.repo != nil {
		_ = a.repo.Close()
	}
}
