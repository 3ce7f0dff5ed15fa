// Package reconcile closes the gap for payments whose gateway callback never
// arrives. A cron job queries the gateway for rewards stuck in
// payment_initiated and resolves them through the same transition path the
// webhook uses, so idempotency and notifications behave identically.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/campusfind/campusfind-backend/internal/config"
	"github.com/campusfind/campusfind-backend/internal/mpesa"
	"github.com/campusfind/campusfind-backend/internal/services"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

type Reconciler struct {
	rewardService *services.RewardService
	gateway       mpesa.Gateway
	cron          *cron.Cron

	// staleAfter is how long a payment may sit in payment_initiated before we
	// query the gateway; failAfter is the hard deadline after which an
	// unresolved payment is marked failed.
	staleAfter time.Duration
	failAfter  time.Duration
}

func New(rewardService *services.RewardService, gateway mpesa.Gateway, cfg *config.Config) *Reconciler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo))
	return &Reconciler{
		rewardService: rewardService,
		gateway:       gateway,
		cron:          cron.New(cron.WithChain(cron.Recover(cronLogger))),
		staleAfter:    cfg.PaymentStaleAfter,
		failAfter:     cfg.PaymentFailAfter,
	}
}

// Start schedules the reconciliation job. The schedule is a standard cron
// expression from config.
func (r *Reconciler) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, r.Run); err != nil {
		return err
	}
	r.cron.Start()
	slog.Info("payment reconciliation scheduled", "schedule", schedule)
	return nil
}

func (r *Reconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// Run performs one reconciliation sweep.
func (r *Reconciler) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-r.staleAfter)
	stale, err := r.rewardService.StalePayments(cutoff, 100)
	if err != nil {
		slog.Error("reconcile: failed to list stale payments", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}
	slog.Info("reconcile: sweeping stale payments", "count", len(stale))

	for _, reward := range stale {
		status, err := r.gateway.QueryStatus(ctx, reward.CheckoutID)
		if err != nil {
			slog.Error("reconcile: gateway query failed",
				"reward_id", reward.ID.String(), "error", err)
			r.failIfExpired(reward.ID, reward.InitiatedAt, "no gateway response within the reconciliation deadline")
			continue
		}

		if !status.Final {
			r.failIfExpired(reward.ID, reward.InitiatedAt, "payment did not settle within the reconciliation deadline")
			continue
		}

		if _, err := r.rewardService.HandleGatewayCallback(
			reward.ID, status.Success, "", status.ResultDesc, nil); err != nil {
			slog.Error("reconcile: failed to resolve payment",
				"reward_id", reward.ID.String(), "error", err)
			continue
		}
		slog.Info("reconcile: payment resolved",
			"reward_id", reward.ID.String(), "success", status.Success)
	}
}

// failIfExpired marks a reward failed once it has been in payment_initiated
// past the hard deadline. Before that it is left alone for the next sweep.
func (r *Reconciler) failIfExpired(rewardID uuid.UUID, initiatedAt *time.Time, reason string) {
	if initiatedAt == nil || time.Since(*initiatedAt) < r.failAfter {
		return
	}

	if _, err := r.rewardService.HandleGatewayCallback(rewardID, false, "", reason, nil); err != nil {
		slog.Error("reconcile: failed to expire payment", "reward_id", rewardID.String(), "error", err)
		return
	}
	slog.Warn("reconcile: payment expired as failed", "reward_id", rewardID.String(), "reason", reason)
}
