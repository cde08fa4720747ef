package cmd

import (
	"context"
	"stall-booking/booking"
	"stall-booking/outbound/notifier"
	"stall-booking/outbound/postgres"
	"time"
)

func runMonitorCmd(ctx context.Context) {
	cfg := newCfg("env")

	db := newDb(cfg)
	defer db.Close()

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	createStreamWorkQueue(ctx, js)

	monitor := &booking.HealthMonitor{
		Cfg:      cfg,
		Querier:  postgres.New(db),
		Notifier: &notifier.QueueNotifier{Publisher: js, Recipient: cfg.GetString("monitor.alert_email")},
		TimeNow:  time.Now,
	}

	monitor.Start(ctx)
}
