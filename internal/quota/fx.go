package quota

import (
	"github.com/closebytel/closeby/internal/quota/repository"
	"github.com/closebytel/closeby/internal/quota/service"
	"go.uber.org/fx"
)

var Module = fx.Module("quota.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
