package main

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
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-qris-orderbot/internal/config"
	"github.com/ariefcatur/go-qris-orderbot/internal/httpx"
	kafkax "github.com/ariefcatur/go-qris-orderbot/internal/kafka"
	"github.com/ariefcatur/go-qris-orderbot/internal/logging"
	"github.com/ariefcatur/go-qris-orderbot/internal/midtrans"
	"github.com/ariefcatur/go-qris-orderbot/internal/orders"
	"github.com/ariefcatur/go-qris-orderbot/internal/payment"
	"github.com/ariefcatur/go-qris-orderbot/internal/postgres"
	"github.com/ariefcatur/go-qris-orderbot/internal/redisx"
	"github.com/ariefcatur/go-qris-orderbot/internal/telegram"
)

func main() {
	_ = godotenv.Load()
	os.Exit(start())
}

// start mengembalikan exit code; log di-flush sebelum proses keluar.
func start() int {
	cfg := config.Load()
	log, err := logging.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", zap.Error(err))
		return 1
	}
	if err := run(cfg, log); err != nil {
		log.Error("orderbot stopped", zap.Error(err))
		return 1
	}
	log.Info("bye")
	return 0
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	if err := postgres.Migrate(cfg.PostgresDSN, log); err != nil {
		return err
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	productRepo := &orders.ProductRepo{DB: db}
	orderRepo := &orders.OrderRepo{DB: db}

	// Redis (opsional): cache katalog + dedup notifikasi
	var (
		cache orders.Cache
		dedup payment.Deduper
	)
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, running without cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			store := &redisx.Store{R: rdb}
			cache, dedup = store, store
		}
	}

	// Kafka (opsional)
	var events orders.Publisher = kafkax.Discard{}
	if len(cfg.KafkaBrokers) > 0 {
		bus := kafkax.NewBus(cfg.KafkaBrokers, 1024, log, orders.TopicOrderCreated, orders.TopicOrderPaid)
		defer bus.Close()
		events = bus
	}

	shop := &orders.Service{
		Orders:   orderRepo,
		Products: productRepo,
		Gateway:  midtrans.NewClient(cfg.MidtransServerKey, cfg.MidtransIsProduction, cfg.MidtransTimeout),
		Events:   events,
		Log:      log.Named("orders"),
		Producer: cfg.ServiceName,
	}
	catalog := &orders.Catalog{Store: productRepo, Cache: cache, Log: log.Named("catalog")}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return err
	}
	log.Info("telegram authorized", zap.String("bot", api.Self.UserName))

	bot := &telegram.Bot{
		API:          api,
		Shop:         shop,
		Catalog:      catalog,
		IsAdmin:      cfg.IsAdmin,
		AdminContact: cfg.AdminContact,
		Log:          log.Named("telegram"),
	}
	payments := &payment.Service{
		ServerKey: cfg.MidtransServerKey,
		Orders:    shop,
		Products:  productRepo,
		Deliverer: bot,
		Dedup:     dedup,
		Log:       log.Named("payment"),
	}

	router := httpx.NewRouter(log.Named("http"))
	(&httpx.WebhookHandler{Payments: payments, Log: log.Named("webhook")}).Register(router)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if cfg.WebhookURL != "" {
			log.Info("set Midtrans notification URL", zap.String("url", cfg.WebhookURL+"/webhook/midtrans"))
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return bot.Run(gctx, updates)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		api.StopReceivingUpdates()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
