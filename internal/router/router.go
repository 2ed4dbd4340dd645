// Package router wires repositories, services and controllers onto the web
// app.
package router

import (
	"context"
	"net/http"
	"time"

	"attendance/workforce/docs"
	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/auth"
	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/middleware"
	"attendance/workforce/internal/pkg/cache"
	"attendance/workforce/internal/pkg/config"
	"attendance/workforce/internal/pkg/repository/postgresql"
	"attendance/workforce/internal/repository/postgres/attendance"
	"attendance/workforce/internal/repository/postgres/location"
	"attendance/workforce/internal/repository/postgres/pointRule"
	"attendance/workforce/internal/repository/postgres/points"
	"attendance/workforce/internal/repository/postgres/tenant"
	"attendance/workforce/internal/repository/postgres/user"
	attendance_service "attendance/workforce/internal/service/attendance"
	"attendance/workforce/internal/service/fraud"
	location_service "attendance/workforce/internal/service/location"
	"attendance/workforce/internal/service/notification"
	points_service "attendance/workforce/internal/service/points"
	"attendance/workforce/internal/service/upload"

	attendance_controller "attendance/workforce/internal/controller/http/v1/attendance"
	auth_controller "attendance/workforce/internal/controller/http/v1/auth"
	file_controller "attendance/workforce/internal/controller/http/v1/file"
	location_controller "attendance/workforce/internal/controller/http/v1/location"
	pointRule_controller "attendance/workforce/internal/controller/http/v1/pointRule"
	points_controller "attendance/workforce/internal/controller/http/v1/points"
	tenant_controller "attendance/workforce/internal/controller/http/v1/tenant"
	user_controller "attendance/workforce/internal/controller/http/v1/user"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Router struct {
	*web.App
	postgresDB *postgresql.Database
	cache      cache.Cache
	auth       *auth.Auth
	face       attendance_service.FaceMatcher
	notifier   *notification.Service
	cfg        *config.Config
	log        *zap.Logger
}

func NewRouter(
	app *web.App,
	postgresDB *postgresql.Database,
	cache cache.Cache,
	auth *auth.Auth,
	face attendance_service.FaceMatcher,
	notifier *notification.Service,
	cfg *config.Config,
	log *zap.Logger,
) *Router {
	return &Router{
		app,
		postgresDB,
		cache,
		auth,
		face,
		notifier,
		cfg,
		log,
	}
}

func (r Router) Init() error {
	r.HandleMethodNotAllowed = true
	r.Use(middleware.CORSMiddleware(r.cfg.Web.AllowedOrigins))

	r.docs()

	defaultTZ, err := time.LoadLocation(r.cfg.DefaultTimezone)
	if err != nil {
		return err
	}

	// - postgresql
	userPostgres := user.NewRepository(r.postgresDB)
	tenantPostgres := tenant.NewRepository(r.postgresDB)
	locationPostgres := location.NewRepository(r.postgresDB)
	pointRulePostgres := pointRule.NewRepository(r.postgresDB, r.log.Named("point_rule"))
	pointsPostgres := points.NewRepository(r.postgresDB)
	attendancePostgres := attendance.NewRepository(r.postgresDB)

	// - storage
	storage := upload.NewStorage(r.cfg.Storage.Dir, r.cfg.Storage.URLPath, r.log)

	// service
	resolver := location_service.NewResolver(locationPostgres, r.cache, r.cfg.CacheTTL, r.log.Named("location"))
	pointsEngine := points_service.NewEngine(
		points_service.Isolated(pointsStore{locationPostgres, pointRulePostgres, attendancePostgres}, r.postgresDB),
		defaultTZ,
		r.log.Named("points"),
	)
	pipeline := attendance_service.NewPipeline(attendance_service.Dependencies{
		Events:    attendancePostgres,
		Users:     userPostgres,
		Ledger:    pointsPostgres,
		Resolver:  resolver,
		Face:      r.face,
		Fraud:     fraud.NewAnalyzer(attendancePostgres, r.log.Named("fraud")),
		Points:    pointsEngine,
		Notifier:  r.notifier,
		DefaultTZ: defaultTZ,
		Log:       r.log.Named("attendance"),
	})

	// controller
	authController := auth_controller.NewController(userPostgres, r.auth)
	attendanceController := attendance_controller.NewController(pipeline, attendancePostgres, tenantPostgres, storage)
	locationController := location_controller.NewController(locationPostgres, resolver)
	pointRuleController := pointRule_controller.NewController(pointRulePostgres)
	pointsController := points_controller.NewController(pointsPostgres)
	tenantController := tenant_controller.NewController(tenantPostgres)
	userController := user_controller.NewController(userPostgres, storage)
	fileController := file_controller.NewController(storage)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": true})
	})

	// #auth
	r.Post("/api/v1/sign-in", authController.SignIn)
	r.Post("/api/v1/refresh-token", authController.RefreshToken)

	anyRole := middleware.Authenticate(r.auth)
	adminOnly := middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleSuperAdmin)

	// #file
	r.Get(r.cfg.Storage.URLPath+"/*filepath", fileController.File, anyRole)

	// #attendance
	r.Post("/api/v1/attendance/check-in", attendanceController.CheckIn, anyRole)
	r.Patch("/api/v1/attendance/check-out", attendanceController.CheckOut, anyRole)
	r.Get("/api/v1/attendance/list", attendanceController.GetList, anyRole)
	r.Get("/api/v1/attendance/history", attendanceController.GetHistory, anyRole)
	r.Get("/api/v1/attendance/export", attendanceController.Export, adminOnly)
	r.Get("/api/v1/attendance/:id", attendanceController.GetDetailById, anyRole)
	r.Patch("/api/v1/attendance/:id/validity", attendanceController.UpdateValidity, adminOnly)

	// #location
	r.Get("/api/v1/location/list", locationController.GetList, anyRole)
	r.Get("/api/v1/location/:id", locationController.GetDetailById, anyRole)
	r.Get("/api/v1/location/:id/qrcode", locationController.QRCode, adminOnly)
	r.Post("/api/v1/location/create", locationController.Create, adminOnly)
	r.Put("/api/v1/location/:id", locationController.UpdateAll, adminOnly)
	r.Patch("/api/v1/location/:id", locationController.UpdateColumns, adminOnly)
	r.Delete("/api/v1/location/:id", locationController.Delete, adminOnly)

	// #point_rule
	r.Get("/api/v1/point_rule/list", pointRuleController.GetList, adminOnly)
	r.Get("/api/v1/point_rule/:id", pointRuleController.GetDetailById, adminOnly)
	r.Post("/api/v1/point_rule/create", pointRuleController.Create, adminOnly)
	r.Put("/api/v1/point_rule/:id", pointRuleController.UpdateAll, adminOnly)
	r.Patch("/api/v1/point_rule/:id", pointRuleController.UpdateColumns, adminOnly)
	r.Delete("/api/v1/point_rule/:id", pointRuleController.Delete, adminOnly)

	// #points
	r.Get("/api/v1/points/balance", pointsController.GetBalance, anyRole)
	r.Get("/api/v1/points/ledger", pointsController.GetLedger, anyRole)
	r.Get("/api/v1/points/statement", pointsController.GetStatement, anyRole)
	r.Post("/api/v1/points/adjust", pointsController.Adjust, adminOnly)

	// #tenant
	r.Get("/api/v1/tenant", tenantController.GetInfo, anyRole)
	r.Patch("/api/v1/tenant", tenantController.UpdateColumns, adminOnly)

	// #user
	r.Get("/api/v1/user/list", userController.GetUserList, adminOnly)
	r.Get("/api/v1/user/import-template", userController.ImportTemplate, adminOnly)
	r.Get("/api/v1/user/:id", userController.GetUserDetailById, anyRole)
	r.Post("/api/v1/user/create", userController.CreateUser, adminOnly)
	r.Post("/api/v1/user/import", userController.CreateUserByExcel, adminOnly)
	r.Patch("/api/v1/user/:id", userController.UpdateUserColumns, adminOnly)
	r.Post("/api/v1/user/:id/face-photo", userController.UploadFacePhoto, adminOnly)
	r.Delete("/api/v1/user/:id", userController.DeleteUser, adminOnly)

	return nil
}

// docs serves the API description under /docs, e.g. /docs/index.html.
func (r Router) docs() {
	r.GET("/docs/*any", func(ctx *gin.Context) {
		docs.SwaggerInfo.Host = ctx.Request.Host
		if ctx.Request.TLS != nil {
			docs.SwaggerInfo.Schemes = []string{"https"}
		}
	}, ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// pointsStore joins the three repositories the points engine reads from.
type pointsStore struct {
	locations *location.Repository
	rules     *pointRule.Repository
	events    *attendance.Repository
}

func (s pointsStore) GetLocation(ctx context.Context, tenantID, id int) (entity.Location, error) {
	return s.locations.GetLocation(ctx, tenantID, id)
}

func (s pointsStore) ActiveRules(ctx context.Context, tenantID int) ([]entity.PointRule, error) {
	return s.rules.ActiveRules(ctx, tenantID)
}

func (s pointsStore) CountAttendedDays(ctx context.Context, userID int, since time.Time, tz *time.Location) (int, error) {
	return s.events.CountAttendedDays(ctx, userID, since, tz)
}
