package billing

import (
	"github.com/closebytel/closeby/internal/billing/repository"
	"github.com/closebytel/closeby/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
