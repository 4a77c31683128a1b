package auth

import domainErrors "github.com/polkiloo/channelpass/internal/domain/errors"

// Approver is the single identity allowed to act on other users' orders.
type Approver struct {
	id int64
}

// NewApprover builds the approver capability for the configured identity.
func NewApprover(id int64) Approver {
	return Approver{id: id}
}

// ID returns the approver's chat identity.
func (a Approver) ID() int64 {
	return a.id
}

// Authorize fails with ErrNotAuthorized unless actorID is the approver.
func (a Approver) Authorize(actorID int64) error {
	if a.id == 0 || actorID != a.id {
		return domainErrors.ErrNotAuthorized
	}
	return nil
}
