package feedback

import (
	"github.com/closebytel/closeby/internal/feedback/repository"
	"github.com/closebytel/closeby/internal/feedback/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feedback.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
