// Package lifecycle defines the events emitted on successful state
// transitions. The notification dispatcher is their only consumer.
package lifecycle

import "github.com/campusfind/campusfind-backend/internal/models"

type EventType string

const (
	EventReportApproved EventType = "report.approved"
	EventReportRejected EventType = "report.rejected"
	EventClaimApproved  EventType = "claim.approved"
	EventClaimRejected  EventType = "claim.rejected"
	EventRewardComplete EventType = "reward.completed"
	EventRewardFailed   EventType = "reward.failed"
)

// Event is emitted exactly once per successful transition. Report is always
// set; Claim and Reward only for their respective event families.
type Event struct {
	Type   EventType
	Report *models.ItemReport
	Claim  *models.Claim
	Reward *models.Reward
	Reason string
}

// Dispatcher consumes lifecycle events. Dispatch is best-effort: failures are
// logged by the implementation and never propagate to the transition that
// produced the event.
type Dispatcher interface {
	Dispatch(event Event)
}
