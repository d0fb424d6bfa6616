package auth

import (
	"go.uber.org/fx"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/auth/repository"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/auth/service"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/auth/session"
)

var Module = fx.Module("auth.service",
	fx.Provide(session.NewManager),
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
