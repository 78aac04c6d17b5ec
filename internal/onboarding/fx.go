package onboarding

import (
	"github.com/closebytel/closeby/internal/onboarding/repository"
	"github.com/closebytel/closeby/internal/onboarding/service"
	"go.uber.org/fx"
)

var Module = fx.Module("onboarding.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
