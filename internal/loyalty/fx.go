package loyalty

import (
	"go.uber.org/fx"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/loyalty/repository"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/loyalty/service"
)

var Module = fx.Module("loyalty.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
