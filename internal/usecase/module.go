package usecase

import "go.uber.org/fx"

// Module provides the plan catalog and the order state machine to the fx container.
var Module = fx.Provide(
	DefaultCatalog,
	NewOrderUseCase,
)
