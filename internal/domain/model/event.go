package model

// Event is an inbound action already classified at the transport edge.
type Event interface {
	// Actor returns the identifier of whoever triggered the event.
	Actor() int64
	event()
}

// ApproverAction enumerates commands reserved for the approver.
type ApproverAction string

const (
	ApproverConfirm ApproverAction = "confirm"
	ApproverReject  ApproverAction = "reject"
	ApproverResend  ApproverAction = "resend"
)

// Start asks for the plan menu.
type Start struct {
	UserID int64
}

// PlanChosen carries the plan picked from the menu.
type PlanChosen struct {
	UserID int64
	PlanID string
}

// ProofSubmitted carries a handle to the payment screenshot.
type ProofSubmitted struct {
	UserID   int64
	ProofRef string
}

// CancelRequested withdraws the user's pending order.
type CancelRequested struct {
	UserID int64
}

// ApproverCommand targets another user's order. TargetUserID is zero when the
// command argument could not be parsed.
type ApproverCommand struct {
	ActorID      int64
	Action       ApproverAction
	TargetUserID int64
}

func (e Start) Actor() int64           { return e.UserID }
func (e PlanChosen) Actor() int64      { return e.UserID }
func (e ProofSubmitted) Actor() int64  { return e.UserID }
func (e CancelRequested) Actor() int64 { return e.UserID }
func (e ApproverCommand) Actor() int64 { return e.ActorID }

func (Start) event()           {}
func (PlanChosen) event()      {}
func (ProofSubmitted) event()  {}
func (CancelRequested) event() {}
func (ApproverCommand) event() {}
