package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"consult-system/internal/controllers"
	"consult-system/internal/listeners"
	"consult-system/internal/repositories"
	"consult-system/internal/services"
	"consult-system/pkg/config"
	"consult-system/pkg/eventbus"
	"consult-system/pkg/middleware"
	"consult-system/pkg/service"
)

// InitRouter собирает весь граф зависимостей приложения и регистрирует
// маршруты. Возвращает сервис эскалации: его фоновый цикл запускает main.
func InitRouter(
	e *echo.Echo,
	dbPool *pgxpool.Pool,
	redisClient *redis.Client,
	cfg *config.Config,
	logger *zap.Logger,
	bus *eventbus.Bus,
) services.EscalationServiceInterface {
	// Репозитории
	txManager := repositories.NewTxManager(dbPool)
	consultRepo := repositories.NewConsultRepository(dbPool)
	userRepo := repositories.NewUserRepository(dbPool)
	deptRepo := repositories.NewDepartmentRepository(dbPool, logger)
	auditRepo := repositories.NewAuditRepository(dbPool)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// Политики автоматической маршрутизации
	routing := services.NewRoutingRegistry(
		services.NewHierarchyPolicy(),
		services.NewRoundRobinPolicy(cacheRepo),
	)

	// Сервисы
	jwtService := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	authService := services.NewAuthService(userRepo, jwtService, logger)
	consultService := services.NewConsultService(txManager, consultRepo, userRepo, deptRepo, auditRepo, routing, bus, cfg, logger)
	deptService := services.NewDepartmentService(deptRepo, userRepo, logger)
	escalationService := services.NewEscalationService(consultRepo, consultService, cfg.Scheduler, logger)
	notificationService := services.NewNotificationService(redisClient, logger)

	// Слушатели шины событий
	listeners.NewNotificationListener(notificationService).Register(bus)

	// Контроллеры
	authController := controllers.NewAuthController(authService, logger)
	consultController := controllers.NewConsultController(consultService, logger)
	deptController := controllers.NewDepartmentController(deptService, logger)

	authMW := middleware.NewAuthMiddleware(jwtService, logger)

	api := e.Group("/api")
	registerAuthRoutes(api, authController)

	secure := api.Group("", authMW.Auth)
	registerConsultRoutes(secure, consultController)
	registerDepartmentRoutes(secure, deptController)

	return escalationService
}

func registerAuthRoutes(g *echo.Group, c *controllers.AuthController) {
	g.POST("/auth/login", c.Login)
	g.POST("/auth/refresh", c.RefreshToken)
}
