package refresh

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"schedcal/internal/capture"
	"schedcal/internal/config"
	"schedcal/internal/convert"
	appLog "schedcal/internal/log"
	"schedcal/internal/web"
)

// Sink receives the published snapshot after a successful refresh.
type Sink interface {
	SetSnapshot(web.Snapshot)
}

// Refresher periodically re-captures the configured portal page and
// regenerates the calendar. A failed tick leaves the previous snapshot in
// place; a tick never publishes a half-built result.
type Refresher struct {
	cfg        *config.Config
	sink       Sink
	cronEngine *cron.Cron
}

func New(cfg *config.Config, sink Sink) *Refresher {
	return &Refresher{
		cfg:        cfg,
		sink:       sink,
		cronEngine: cron.New(cron.WithLocation(time.Local)),
	}
}

// Start registers the cron job and runs one refresh immediately so that
// /calendar.ics has content before the first scheduled tick.
func (r *Refresher) Start(ctx context.Context) error {
	if _, err := r.cronEngine.AddFunc(r.cfg.RefreshCron, func() {
		jobCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		r.runOnce(jobCtx)
	}); err != nil {
		return err
	}

	initCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	r.runOnce(initCtx)

	r.cronEngine.Start()
	appLog.Info("refresh loop started", "cron", r.cfg.RefreshCron, "portal_url", r.cfg.PortalURL)
	return nil
}

// Stop halts the cron engine and waits for a running job to finish.
func (r *Refresher) Stop() {
	stopCtx := r.cronEngine.Stop()
	<-stopCtx.Done()
	appLog.Info("refresh loop stopped")
}

func (r *Refresher) runOnce(ctx context.Context) {
	htmlText, err := capture.FetchScheduleHTML(ctx, capture.Options{
		URL:     r.cfg.PortalURL,
		Timeout: time.Duration(r.cfg.CaptureTimeoutSec) * time.Second,
	})
	if err != nil {
		appLog.Error("refresh capture failed", err, "portal_url", r.cfg.PortalURL)
		return
	}

	var termEnd time.Time
	if r.cfg.TermEnd != "" {
		termEnd, err = time.Parse("2006-01-02", r.cfg.TermEnd)
		if err != nil {
			appLog.Error("invalid term_end in config", err, "term_end", r.cfg.TermEnd)
			return
		}
	}

	res, err := convert.Run(htmlText, termEnd, convert.Options{
		ProductID:            r.cfg.ProductID,
		AllowDetectedTermEnd: true,
	})
	if err != nil {
		appLog.Error("refresh conversion failed", err)
		return
	}

	r.sink.SetSnapshot(web.Snapshot{
		ICS:         res.ICS,
		Events:      res.Events,
		Warnings:    res.Warnings,
		TermEnd:     res.TermEnd,
		GeneratedAt: time.Now(),
	})

	if r.cfg.OutputPath != "" {
		if err := convert.WriteFile(r.cfg.OutputPath, res.ICS); err != nil {
			appLog.Error("refresh output write failed", err, "output", r.cfg.OutputPath)
		}
	}

	appLog.Info("refresh completed",
		"event_count", len(res.Events),
		"warning_count", len(res.Warnings),
		"term_end", res.TermEnd.Format("2006-01-02"),
	)
}
