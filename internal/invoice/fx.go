package invoice

import (
	"github.com/smallbiznis/faktur/internal/invoice/render"
	"github.com/smallbiznis/faktur/internal/invoice/repository"
	"github.com/smallbiznis/faktur/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	repository.Module,
	fx.Provide(render.NewRenderer),
	fx.Provide(service.NewService),
)
