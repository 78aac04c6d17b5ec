package auth

import (
	"github.com/closebytel/closeby/internal/auth/repository"
	"github.com/closebytel/closeby/internal/auth/sender"
	"github.com/closebytel/closeby/internal/auth/service"
	"github.com/closebytel/closeby/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.Provide),
	fx.Provide(sender.NewConsole),
	fx.Provide(session.NewManager),
	fx.Provide(service.New),
)
