package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/archive"
	archivedomain "github.com/muralikrishna41140/cakeraft-sub001/internal/archive/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/auth"
	authdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/auth/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/auth/session"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/authorization"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/billing"
	billingdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/billing/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/catalog"
	catalogdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/catalog/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/config"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/loyalty"
	loyaltydomain "github.com/muralikrishna41140/cakeraft-sub001/internal/loyalty/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/observability"
	obsmiddleware "github.com/muralikrishna41140/cakeraft-sub001/internal/observability/logger"
	obsmetrics "github.com/muralikrishna41140/cakeraft-sub001/internal/observability/metrics"
	obstracing "github.com/muralikrishna41140/cakeraft-sub001/internal/observability/tracing"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/providers/pdf"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/ratelimit"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	catalog.Module,
	loyalty.Module,
	billing.Module,
	pdf.Module,
	archive.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	db             *gorm.DB
	authsvc        authdomain.Service
	sessions       *session.Manager
	authzSvc       authorization.Service
	catalogSvc     catalogdomain.Service
	billingSvc     billingdomain.Service
	loyaltySvc     loyaltydomain.Service
	archiveSvc     archivedomain.Service
	pdfProvider    pdf.Provider
	obsMetrics     *obsmetrics.Metrics
	loyaltyLimiter *ratelimit.LookupLimiter
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	Authsvc    authdomain.Service
	Sessions   *session.Manager
	AuthzSvc   authorization.Service
	CatalogSvc catalogdomain.Service
	BillingSvc billingdomain.Service
	LoyaltySvc loyaltydomain.Service
	ArchiveSvc archivedomain.Service
	PDF        pdf.Provider
	ObsMetrics *obsmetrics.Metrics      `optional:"true"`
	Limiter    *ratelimit.LookupLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		db:             p.DB,
		authsvc:        p.Authsvc,
		sessions:       p.Sessions,
		authzSvc:       p.AuthzSvc,
		catalogSvc:     p.CatalogSvc,
		billingSvc:     p.BillingSvc,
		loyaltySvc:     p.LoyaltySvc,
		archiveSvc:     p.ArchiveSvc,
		pdfProvider:    p.PDF,
		obsMetrics:     p.ObsMetrics,
		loyaltyLimiter: p.Limiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.Me)
	auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")
	api.Use(s.AuthRequired())

	// -------- Bills --------
	api.POST("/bills", s.authorize(authorization.ObjectBill, authorization.ActionBillCreate), s.Checkout)
	api.GET("/bills", s.authorize(authorization.ObjectBill, authorization.ActionBillView), s.ListBills)
	api.GET("/bills/:id", s.authorize(authorization.ObjectBill, authorization.ActionBillView), s.GetBillByID)
	api.GET("/bills/:id/pdf", s.authorize(authorization.ObjectBill, authorization.ActionBillView), s.BillReceiptPDF)

	// -------- Catalog --------
	api.GET("/products", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogView), s.ListProducts)
	api.GET("/products/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogView), s.GetProductByID)
	api.GET("/categories", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogView), s.ListCategories)

	// -------- Loyalty --------
	api.GET("/loyalty/status", s.authorize(authorization.ObjectLoyalty, authorization.ActionLoyaltyView), s.LoyaltyLookupRateLimit(), s.LoyaltyStatus)
	api.GET("/loyalty/history", s.authorize(authorization.ObjectLoyalty, authorization.ActionLoyaltyView), s.LoyaltyLookupRateLimit(), s.LoyaltyHistory)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.Use(s.AuthRequired())

	// -------- Catalog management --------
	admin.POST("/categories", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.CreateCategory)
	admin.PATCH("/categories/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.UpdateCategory)
	admin.POST("/categories/:id/deactivate", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.DeactivateCategory)
	admin.POST("/products", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.CreateProduct)
	admin.PATCH("/products/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.UpdateProduct)
	admin.POST("/products/:id/deactivate", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.DeactivateProduct)

	// -------- Reports --------
	admin.GET("/reports/revenue", s.authorize(authorization.ObjectReport, authorization.ActionReportView), s.RevenueSummary)

	// -------- Archival --------
	admin.POST("/export/aged", s.authorize(authorization.ObjectArchive, authorization.ActionArchiveExport), s.ExportAged)
	admin.GET("/bills/:id/archive", s.authorize(authorization.ObjectArchive, authorization.ActionArchiveView), s.BillArchiveStatus)

	// -------- Users --------
	admin.POST("/users", s.authorize(authorization.ObjectUser, authorization.ActionUserManage), s.CreateUser)
}
