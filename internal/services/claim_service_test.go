package services

import (
	"errors"
	"testing"

	"github.com/campusfind/campusfind-backend/internal/apperr"
	"github.com/campusfind/campusfind-backend/internal/dto"
	"github.com/campusfind/campusfind-backend/internal/models"
)

var claimReq = dto.CreateClaimRequest{
	Justification: "It has my initials on the strap",
	Contact:       "254712345678",
}

func TestCreateClaimRequiresApprovedReport(t *testing.T) {
	db := setupTestDB(t)
	reportSvc := NewReportService(db, nil)
	claimSvc := NewClaimService(db, nil)
	reporter := createUser(t, db, "wanjiku", models.RoleUser)
	claimant := createUser(t, db, "otieno", models.RoleUser)

	pending := submitReport(t, reportSvc, reporter)

	req := claimReq
	_, err := claimSvc.Create(pending.ID, asActor(claimant), &req)
	var stateErr *apperr.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError for pending report, got %v", err)
	}

	var count int64
	db.Model(&models.Claim{}).Count(&count)
	if count != 0 {
		t.Fatalf("no claim record should exist, found %d", count)
	}
}

func TestCreateClaimValidation(t *testing.T) {
	db := setupTestDB(t)
	reportSvc := NewReportService(db, nil)
	claimSvc := NewClaimService(db, nil)
	reporter := createUser(t, db, "wanjiku", models.RoleUser)
	moderator := createUser(t, db, "mod", models.RoleModerator)
	claimant := createUser(t, db, "otieno", models.RoleUser)

	report := approvedReport(t, reportSvc, reporter, moderator)

	req := dto.CreateClaimRequest{Justification: "", Contact: "254712345678"}
	if _, err := claimSvc.Create(report.ID, asActor(claimant), &req); err == nil {
		t.Fatal("expected missing justification to fail")
	}

	req = dto.CreateClaimRequest{Justification: "mine", Contact: " "}
	if _, err := claimSvc.Create(report.ID, asActor(claimant), &req); err == nil {
		t.Fatal("expected missing contact to fail")
	}

	req = claimReq
	claim, err := claimSvc.Create(report.ID, asActor(claimant), &req)
	if err != nil {
		t.Fatalf("valid claim failed: %v", err)
	}
	if claim.Status != models.ClaimPending {
		t.Fatalf("expected new claim pending, got %s", claim.Status)
	}
}

func TestApproveClaimRejectsSiblingsAndStampsReport(t *testing.T) {
	db := setupTestDB(t)
	dispatcher := NewNotificationService(db)
	reportSvc := NewReportService(db, dispatcher)
	claimSvc := NewClaimService(db, dispatcher)
	reporter := createUser(t, db, "wanjiku", models.RoleUser)
	moderator := createUser(t, db, "mod", models.RoleModerator)
	first := createUser(t, db, "otieno", models.RoleUser)
	second := createUser(t, db, "achieng", models.RoleUser)

	report := approvedReport(t, reportSvc, reporter, moderator)

	reqA := claimReq
	claimA, err := claimSvc.Create(report.ID, asActor(first), &reqA)
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	reqB := claimReq
	claimB, err := claimSvc.Create(report.ID, asActor(second), &reqB)
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}

	approved, err := claimSvc.Approve(claimA.ID, asActor(moderator))
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != models.ClaimApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}

	var sibling models.Claim
	db.First(&sibling, "id = ?", claimB.ID)
	if sibling.Status != models.ClaimRejected {
		t.Fatalf("expected sibling claim auto-rejected, got %s", sibling.Status)
	}

	var stored models.ItemReport
	db.First(&stored, "id = ?", report.ID)
	if stored.ClaimedBy == nil || *stored.ClaimedBy != first.ID {
		t.Fatal("report should be stamped as claimed by the approved claimant")
	}

	// Approved claimant gets a success, rejected sibling an error.
	if n := notificationsFor(t, db, first.ID); len(n) != 1 || n[0].Type != models.NotificationSuccess {
		t.Fatalf("unexpected notifications for approved claimant: %+v", n)
	}
	if n := notificationsFor(t, db, second.ID); len(n) != 1 || n[0].Type != models.NotificationError {
		t.Fatalf("unexpected notifications for rejected claimant: %+v", n)
	}
}

func TestApproveClaimOnlyFromPending(t *testing.T) {
	db := setupTestDB(t)
	reportSvc := NewReportService(db, nil)
	claimSvc := NewClaimService(db, nil)
	reporter := createUser(t, db, "wanjiku", models.RoleUser)
	moderator := createUser(t, db, "mod", models.RoleModerator)
	claimant := createUser(t, db, "otieno", models.RoleUser)

	report := approvedReport(t, reportSvc, reporter, moderator)
	req := claimReq
	claim, err := claimSvc.Create(report.ID, asActor(claimant), &req)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	if _, err := claimSvc.Approve(claim.ID, asActor(moderator)); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}

	_, err = claimSvc.Approve(claim.ID, asActor(moderator))
	var stateErr *apperr.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError on double approve, got %v", err)
	}

	_, err = claimSvc.Reject(claim.ID, asActor(moderator), "")
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError rejecting an approved claim, got %v", err)
	}
}

func TestClaimModerationRequiresModerator(t *testing.T) {
	db := setupTestDB(t)
	reportSvc := NewReportService(db, nil)
	claimSvc := NewClaimService(db, nil)
	reporter := createUser(t, db, "wanjiku", models.RoleUser)
	moderator := createUser(t, db, "mod", models.RoleModerator)
	claimant := createUser(t, db, "otieno", models.RoleUser)

	report := approvedReport(t, reportSvc, reporter, moderator)
	req := claimReq
	claim, err := claimSvc.Create(report.ID, asActor(claimant), &req)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	_, err = claimSvc.Approve(claim.ID, asActor(claimant))
	var authErr *apperr.AuthError
	if !errors.As(err, &authErr) || !authErr.Forbidden {
		t.Fatalf("expected forbidden AuthError, got %v", err)
	}
}
