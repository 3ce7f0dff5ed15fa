package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/campusfind/campusfind-backend/internal/apperr"
	"github.com/campusfind/campusfind-backend/internal/dto"
	"github.com/campusfind/campusfind-backend/internal/models"
	"github.com/campusfind/campusfind-backend/internal/mpesa"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeGateway implements mpesa.Gateway for tests.
type fakeGateway struct {
	pushErr   error
	pushCalls int
	status    *mpesa.StatusResult
	queryErr  error
}

func (f *fakeGateway) InitiateSTKPush(_ context.Context, req mpesa.STKPushRequest) (*mpesa.STKPushResult, error) {
	f.pushCalls++
	if f.pushErr != nil {
		return nil, f.pushErr
	}
	return &mpesa.STKPushResult{CheckoutID: fmt.Sprintf("ws_CO_%d", f.pushCalls)}, nil
}

func (f *fakeGateway) QueryStatus(_ context.Context, checkoutID string) (*mpesa.StatusResult, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.status, nil
}

type rewardFixture struct {
	db       *gorm.DB
	gateway  *fakeGateway
	svc      *RewardService
	reporter models.User
	finder   models.User
	report   *models.ItemReport
}

func newRewardFixture(t *testing.T) *rewardFixture {
	t.Helper()
	db := setupTestDB(t)
	dispatcher := NewNotificationService(db)
	reportSvc := NewReportService(db, dispatcher)
	gateway := &fakeGateway{}
	svc := NewRewardService(db, gateway, dispatcher)

	reporter := createUser(t, db, "wanjiku", models.RoleUser)
	moderator := createUser(t, db, "mod", models.RoleModerator)
	finder := createUser(t, db, "otieno", models.RoleUser)
	report := approvedReport(t, reportSvc, reporter, moderator)

	return &rewardFixture{
		db: db, gateway: gateway, svc: svc,
		reporter: reporter, finder: finder, report: report,
	}
}

func (f *rewardFixture) createReward(t *testing.T) *models.Reward {
	t.Helper()
	reward, err := f.svc.Create(f.report.ID, asActor(f.reporter), &dto.CreateRewardRequest{
		FinderID:    f.finder.ID,
		Amount:      500,
		PhoneNumber: "254712345678",
	})
	if err != nil {
		t.Fatalf("failed to create reward: %v", err)
	}
	return reward
}

func TestCreateRewardValidation(t *testing.T) {
	f := newRewardFixture(t)

	tests := []struct {
		name string
		req  dto.CreateRewardRequest
	}{
		{"zero amount", dto.CreateRewardRequest{FinderID: f.finder.ID, Amount: 0, PhoneNumber: "254712345678"}},
		{"negative amount", dto.CreateRewardRequest{FinderID: f.finder.ID, Amount: -50, PhoneNumber: "254712345678"}},
		{"bad phone prefix", dto.CreateRewardRequest{FinderID: f.finder.ID, Amount: 500, PhoneNumber: "0712345678"}},
		{"short phone", dto.CreateRewardRequest{FinderID: f.finder.ID, Amount: 500, PhoneNumber: "25471234567"}},
		{"missing finder", dto.CreateRewardRequest{Amount: 500, PhoneNumber: "254712345678"}},
		{"finder is owner", dto.CreateRewardRequest{FinderID: f.reporter.ID, Amount: 500, PhoneNumber: "254712345678"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(f.report.ID, asActor(f.reporter), &tt.req)
			var validationErr *apperr.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCreateRewardOnlyByOwnerOnApprovedReport(t *testing.T) {
	f := newRewardFixture(t)

	req := dto.CreateRewardRequest{FinderID: f.reporter.ID, Amount: 500, PhoneNumber: "254712345678"}
	_, err := f.svc.Create(f.report.ID, asActor(f.finder), &req)
	var authErr *apperr.AuthError
	if !errors.As(err, &authErr) || !authErr.Forbidden {
		t.Fatalf("expected forbidden AuthError for non-owner, got %v", err)
	}

	// A pending report cannot carry a reward.
	reportSvc := NewReportService(f.db, nil)
	pending := submitReport(t, reportSvc, f.reporter)
	req = dto.CreateRewardRequest{FinderID: f.finder.ID, Amount: 500, PhoneNumber: "254712345678"}
	_, err = f.svc.Create(pending.ID, asActor(f.reporter), &req)
	var stateErr *apperr.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError for pending report, got %v", err)
	}
}

func TestInitiatePaymentTransitions(t *testing.T) {
	f := newRewardFixture(t)
	reward := f.createReward(t)

	initiated, err := f.svc.InitiatePayment(context.Background(), reward.ID, asActor(f.reporter))
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if initiated.Status != models.RewardPaymentInitiated {
		t.Fatalf("expected payment_initiated, got %s", initiated.Status)
	}
	if initiated.CheckoutID == "" {
		t.Fatal("checkout id should be recorded")
	}
	if initiated.InitiatedAt == nil {
		t.Fatal("initiated_at should be stamped")
	}
}

func TestInitiatePaymentGatewayFailureLeavesCreated(t *testing.T) {
	f := newRewardFixture(t)
	reward := f.createReward(t)
	f.gateway.pushErr = errors.New("connection refused")

	_, err := f.svc.InitiatePayment(context.Background(), reward.ID, asActor(f.reporter))
	var gatewayErr *apperr.GatewayError
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}

	var stored models.Reward
	f.db.First(&stored, "id = ?", reward.ID)
	if stored.Status != models.RewardCreated {
		t.Fatalf("gateway failure must leave reward in created, got %s", stored.Status)
	}

	// Retry succeeds once the gateway recovers.
	f.gateway.pushErr = nil
	if _, err := f.svc.InitiatePayment(context.Background(), reward.ID, asActor(f.reporter)); err != nil {
		t.Fatalf("retry after gateway failure should succeed: %v", err)
	}
}

func TestInitiatePaymentTwiceConflicts(t *testing.T) {
	f := newRewardFixture(t)
	reward := f.createReward(t)

	if _, err := f.svc.InitiatePayment(context.Background(), reward.ID, asActor(f.reporter)); err != nil {
		t.Fatalf("first initiate failed: %v", err)
	}

	_, err := f.svc.InitiatePayment(context.Background(), reward.ID, asActor(f.reporter))
	var stateErr *apperr.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError on second initiate, got %v", err)
	}
	if f.gateway.pushCalls != 1 {
		t.Fatalf("second initiate must not reach the gateway, saw %d calls", f.gateway.pushCalls)
	}
}

func TestInitiatePaymentOnlyByOwner(t *testing.T) {
	f := newRewardFixture(t)
	reward := f.createReward(t)

	_, err := f.svc.InitiatePayment(context.Background(), reward.ID, asActor(f.finder))
	var authErr *apperr.AuthError
	if !errors.As(err, &authErr) || !authErr.Forbidden {
		t.Fatalf("expected forbidden AuthError, got %v", err)
	}
}

func TestGatewayCallbackCompletesAndNotifiesBothParties(t *testing.T) {
	f := newRewardFixture(t)
	reward := f.createReward(t)

	if _, err := f.svc.InitiatePayment(context.Background(), reward.ID, asActor(f.reporter)); err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	resolved, err := f.svc.HandleGatewayCallback(reward.ID, true, "MPESA123", "Success", []byte(`{"ResultCode":0}`))
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if resolved.Status != models.RewardCompleted {
		t.Fatalf("expected completed, got %s", resolved.Status)
	}
	if resolved.TransactionRef == nil || *resolved.TransactionRef != "MPESA123" {
		t.Fatal("transaction ref should be recorded")
	}

	finderNotes := notificationsFor(t, f.db, f.finder.ID)
	ownerNotes := notificationsFor(t, f.db, f.reporter.ID)
	if len(finderNotes) != 1 || finderNotes[0].Type != models.NotificationSuccess {
		t.Fatalf("finder should get one success notification, got %+v", finderNotes)
	}
	// Owner has the report-approved notification plus the payment one.
	var paymentNotes int
	for _, n := range ownerNotes {
		if n.Title == "Reward Payment Sent" {
			paymentNotes++
		}
	}
	if paymentNotes != 1 {
		t.Fatalf("owner should get one payment notification, got %d", paymentNotes)
	}
}

func TestGatewayCallbackIsIdempotent(t *testing.T) {
	f := newRewardFixture(t)
	reward := f.createReward(t)

	if _, err := f.svc.InitiatePayment(context.Background(), reward.ID, asActor(f.reporter)); err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if _, err := f.svc.HandleGatewayCallback(reward.ID, true, "MPESA123", "Success", nil); err != nil {
		t.Fatalf("first callback failed: %v", err)
	}

	// Duplicate delivery with the same outcome is a no-op.
	resolved, err := f.svc.HandleGatewayCallback(reward.ID, true, "MPESA123", "Success", nil)
	if err != nil {
		t.Fatalf("duplicate callback must be a no-op, got %v", err)
	}
	if resolved.Status != models.RewardCompleted {
		t.Fatalf("duplicate callback changed state to %s", resolved.Status)
	}

	// No second pair of notifications.
	if n := notificationsFor(t, f.db, f.finder.ID); len(n) != 1 {
		t.Fatalf("duplicate callback produced extra notifications: %d", len(n))
	}

	// A conflicting outcome on a terminal reward is a state conflict.
	_, err = f.svc.HandleGatewayCallback(reward.ID, false, "", "Timeout", nil)
	var stateErr *apperr.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError for conflicting outcome, got %v", err)
	}
}

func TestGatewayCallbackRequiresInitiatedState(t *testing.T) {
	f := newRewardFixture(t)
	reward := f.createReward(t)

	_, err := f.svc.HandleGatewayCallback(reward.ID, true, "MPESA123", "Success", nil)
	var stateErr *apperr.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError for callback on created reward, got %v", err)
	}

	_, err = f.svc.HandleGatewayCallback(uuid.New(), true, "", "", nil)
	var notFoundErr *apperr.NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestGatewayCallbackFailureNotifiesBothParties(t *testing.T) {
	f := newRewardFixture(t)
	reward := f.createReward(t)

	if _, err := f.svc.InitiatePayment(context.Background(), reward.ID, asActor(f.reporter)); err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	resolved, err := f.svc.HandleGatewayCallback(reward.ID, false, "", "Request cancelled by user", nil)
	if err != nil {
		t.Fatalf("failure callback failed: %v", err)
	}
	if resolved.Status != models.RewardFailed {
		t.Fatalf("expected failed, got %s", resolved.Status)
	}
	if resolved.FailureReason == "" {
		t.Fatal("failure reason should be recorded")
	}

	if n := notificationsFor(t, f.db, f.finder.ID); len(n) != 1 || n[0].Type != models.NotificationError {
		t.Fatalf("finder should get one error notification, got %+v", n)
	}
}

func TestListForUser(t *testing.T) {
	f := newRewardFixture(t)
	f.createReward(t)

	given, received, err := f.svc.ListForUser(f.reporter.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(given) != 1 || len(received) != 0 {
		t.Fatalf("owner: expected 1 given / 0 received, got %d/%d", len(given), len(received))
	}

	given, received, err = f.svc.ListForUser(f.finder.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(given) != 0 || len(received) != 1 {
		t.Fatalf("finder: expected 0 given / 1 received, got %d/%d", len(given), len(received))
	}
}
