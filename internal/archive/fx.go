package archive

import (
	"go.uber.org/fx"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/archive/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/archive/service"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/config"
)

var Module = fx.Module("archive.service",
	fx.Provide(func(cfg config.Config) domain.Sink {
		return service.NewLocalSink(cfg.ArchiveDir)
	}),
	fx.Provide(service.New),
	fx.Invoke(service.Register),
)
