package billing

import (
	"github.com/muralikrishna41140/cakeraft-sub001/internal/billing/numbering"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/billing/repository"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(numbering.New),
	fx.Provide(service.New),
)
