package main // entry point of the reservation API

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/document"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/lib/logger/sl"
	"github.com/iliyamo/event-ticketing/internal/lib/logger/slogpretty"
	"github.com/iliyamo/event-ticketing/internal/mail"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/router"
	"github.com/iliyamo/event-ticketing/internal/service"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting event ticketing", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Error("failed to open database", sl.Err(err))
		os.Exit(1)
	}
	if cfg.Database.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Error("failed to apply migrations", sl.Err(err))
			os.Exit(1)
		}
	}

	txm := repository.NewTxManager(db)
	events := repository.NewEventRepo(db)
	reservations := repository.NewReservationRepo(db)
	users := repository.NewUserRepo(db)

	publisher := queue.NewAMQPPublisher(cfg.Notify.RabbitMQURL, cfg.Notify.Queue)
	dispatcher := queue.NewDispatcher(log, publisher, cfg.Notify.Buffer, cfg.Notify.PublishTimeout)
	dispatcher.Start()

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	consumerDone := make(chan struct{})
	if cfg.Notify.ConsumerEnabled {
		consumer := queue.NewConsumer(log, cfg.Notify.RabbitMQURL, cfg.Notify.Queue, cfg.Notify.MailFrom, users, mail.NewLogMailer(log))
		go func() {
			defer close(consumerDone)
			consumer.Run(consumerCtx)
		}()
	} else {
		close(consumerDone)
	}

	reservationSvc := service.NewReservationService(
		log, txm, events, reservations,
		service.NewReferenceGenerator(), dispatcher, clock.NewSystem(),
		service.ReservationOptions{
			MaxTicketsPerReservation: cfg.Reservation.MaxTicketsPerReservation,
			ReferenceMaxAttempts:     cfg.Reservation.ReferenceMaxAttempts,
		},
	)
	documentSvc := service.NewDocumentService(log, reservations, document.NewTicketPDF(), document.NewCalendar())

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil && cfg.RateLimit.Enabled {
		log.Warn("redis unreachable, rate limiting disabled")
	}

	e := router.New(router.Deps{
		Log:            log,
		JWTSecret:      cfg.JWTSecret,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		RateLimit:      cfg.RateLimit,
		Redis:          rdb,
		Health:         handler.NewHealthHandler(db),
		Reservations:   handler.NewReservationHandler(log, reservationSvc, documentSvc, cfg.Reservation.TxMaxRetries),
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      e,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", sl.Err(err))
			stop <- syscall.SIGTERM
		}
	}()

	sign := <-stop
	log.Info("application stopping", slog.String("signal", sign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server", sl.Err(err))
	}
	if err := dispatcher.Close(ctx); err != nil {
		log.Error("notifications left undelivered", sl.Err(err))
	}
	if err := publisher.Close(); err != nil {
		log.Error("failed to close broker connection", sl.Err(err))
	}
	stopConsumer()
	<-consumerDone
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := db.Close(); err != nil {
		log.Error("failed to close database", sl.Err(err))
	}

	log.Info("application stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	h := opts.NewPrettyHandler(os.Stdout)

	return slog.New(h)
}
