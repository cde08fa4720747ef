package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"runtime/pprof"
	"stall-booking/booking"
	"stall-booking/common/otel"
	inboundCron "stall-booking/inbound/cron"
	inboundHttp "stall-booking/inbound/http"
	"stall-booking/outbound/notifier"
	"stall-booking/outbound/postgres"
	"time"

	"github.com/go-playground/validator/v10"
)

func runHttpServerCmd(ctx context.Context) {
	cfg := newCfg("env")

	if cfg.GetString("env") == "dev" {
		cpu, err := os.Create("http-cpu.prof")
		if err != nil {
			log.Fatalf("could not create CPU profile: %v", err)
		}
		defer cpu.Close()

		err = pprof.StartCPUProfile(cpu)
		if err != nil {
			log.Fatalf("could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()

		mem, err := os.Create("http-mem.prof")
		if err != nil {
			log.Fatalf("could not create memory profile: %v", err)
		}
		defer mem.Close()

		err = pprof.WriteHeapProfile(mem)
		if err != nil {
			log.Fatalf("could not write memory profile: %v", err)
		}
		defer mem.Close()
	}

	shutdownTracer := otel.InitTracerProvider(ctx, cfg)
	defer shutdownTracer(context.Background())

	validate := validator.New()

	db := newDb(cfg)
	defer db.Close()

	cacheClient := newRedis(cfg)
	defer cacheClient.Close()

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	createStreamWorkQueue(ctx, js)

	querier := postgres.New(db)
	gatewayClient := newGateway(cfg)

	inventory := &booking.StallInventory{Db: db, Querier: querier, TimeNow: time.Now}
	sequencer := &booking.ReceiptSequencer{Querier: querier}

	orchestrator := &booking.BookingOrchestrator{
		Inventory:      inventory,
		Sequencer:      sequencer,
		Orders:         querier,
		Gateway:        gatewayClient,
		Publisher:      js,
		TimeNow:        time.Now,
		ReservationTTL: cfg.GetDuration("order.reservation_ttl"),
	}

	reconciler := &booking.PaymentReconciler{
		Orders:    querier,
		Inventory: inventory,
		Gateway:   gatewayClient,
		Notifier:  &notifier.QueueNotifier{Publisher: js, Recipient: cfg.GetString("monitor.alert_email")},
		TimeNow:   time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		slog.DebugContext(r.Context(), "health check")
		w.WriteHeader(http.StatusOK)
	})

	timeoutMiddleware := inboundHttp.TimeoutMiddleware(20 * time.Second)

	inboundHttp.RegisterOrderHttp(mux, orchestrator, reconciler, querier, cacheClient, validate)
	inboundHttp.RegisterPaymentHttp(mux, cacheClient, querier, js, gatewayClient, validate)
	inboundHttp.RegisterStallHttp(mux, cacheClient)
	inboundHttp.RegisterCounterHttp(mux, querier)

	stallCron := inboundCron.StallCron{
		Cfg:     cfg,
		Cache:   cacheClient,
		Querier: querier,
		TimeNow: time.Now,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.GetInt("server.port")),
		Handler:           timeoutMiddleware(inboundHttp.CorsMiddleware(mux)),
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalln("unable to start server", err)
		}
	}()

	slog.Info("http server started")

	go func() {
		stallCron.Start(ctx)
	}()

	<-ctx.Done()

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutDown); err != nil {
		log.Fatalln("unable to shutdown server", err)
	}

	slog.Info("http server stopped")
}
