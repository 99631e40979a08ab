package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rehmanul/BOT-Friday-sub000/internal/auth"
	"github.com/rehmanul/BOT-Friday-sub000/internal/campaign"
	"github.com/rehmanul/BOT-Friday-sub000/internal/config"
	"github.com/rehmanul/BOT-Friday-sub000/internal/db"
	"github.com/rehmanul/BOT-Friday-sub000/internal/events"
	httpx "github.com/rehmanul/BOT-Friday-sub000/internal/http"
	"github.com/rehmanul/BOT-Friday-sub000/internal/jobs"
	"github.com/rehmanul/BOT-Friday-sub000/internal/logging"
	"github.com/rehmanul/BOT-Friday-sub000/internal/outreach"
	"github.com/rehmanul/BOT-Friday-sub000/internal/sender"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	slogger := logging.New(cfg.LogLevel)

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// notifications: in-process hub always, AMQP when configured
	hub := events.NewHub()
	notifier := events.Fanout{hub}
	if cfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL, slogger)
		if err != nil {
			log.Fatal(err)
		}
		defer pub.Close()
		notifier = append(notifier, pub)
	}

	store := &campaign.Store{DB: gdb}
	limiter := outreach.NewRateLimiter(outreach.Limits{
		Hourly: cfg.HourlySendLimit,
		Daily:  cfg.DailySendLimit,
	}, cfg.MinSendDelay, cfg.MaxSendDelay)

	var msgSender outreach.MessageSender
	switch cfg.SenderDriver {
	case "tiktok":
		tk, err := sender.NewTikTok(ctx, sender.Options{
			UserID:   cfg.PortalUserID,
			Headless: cfg.BrowserHeadless,
		}, store, notifier, slogger)
		if err != nil {
			log.Fatal(err)
		}
		defer tk.Close()
		msgSender = tk
	default:
		msgSender = &sender.Mock{Delay: 200 * time.Millisecond}
	}

	delivery := outreach.NewDelivery(store, msgSender, limiter, notifier, slogger)
	runner := outreach.NewRunner(store, limiter, delivery, notifier, slogger)
	mgr := outreach.NewManager(runner, slogger)

	svc := &campaign.Service{DB: gdb, Notifier: notifier}

	// resume worker: restarts quota-blocked runs once the window turns over
	resumer := &jobs.Resumer{
		DB:       gdb,
		Manager:  mgr,
		Limiter:  limiter,
		Interval: cfg.ResumeInterval,
		Log:      slogger,
	}
	go resumer.Run(ctx)

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	r := httpx.NewRouter(cfg, gdb, jwtSvc, svc, mgr, limiter)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	mgr.Shutdown()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
