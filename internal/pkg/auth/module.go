package auth

import (
	"github.com/polkiloo/channelpass/internal/config"
	"go.uber.org/fx"
)

// Module provides authorization primitives via fx.
var Module = fx.Options(
	fx.Provide(newPasswordHasher),
	fx.Provide(newApprover),
	fx.Provide(newAuditCredentials),
)

func newPasswordHasher() PasswordHasher {
	return NewBcryptHasher(0)
}

type configParams struct {
	fx.In

	Config *config.Config
}

func newApprover(p configParams) Approver {
	return NewApprover(p.Config.AdminID)
}

type credentialsParams struct {
	fx.In

	Config *config.Config
	Hasher PasswordHasher
}

func newAuditCredentials(p credentialsParams) *BasicCredentials {
	return NewBasicCredentials(p.Config.AuditUser, p.Config.AuditPasswordHash, p.Hasher)
}
