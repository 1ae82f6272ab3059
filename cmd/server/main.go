package main

import (
	"strings"

	"tableserve-backend/internal/analytics"
	"tableserve-backend/internal/auth"
	"tableserve-backend/internal/billing"
	"tableserve-backend/internal/category"
	"tableserve-backend/internal/config"
	"tableserve-backend/internal/database"
	"tableserve-backend/internal/httpx"
	"tableserve-backend/internal/logging"
	"tableserve-backend/internal/menu"
	"tableserve-backend/internal/models"
	"tableserve-backend/internal/order"
	"tableserve-backend/internal/realtime"
	"tableserve-backend/internal/settings"
	"tableserve-backend/internal/table"
	"tableserve-backend/internal/upload"
	"tableserve-backend/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	db := database.Connect(cfg)

	hub := realtime.NewHub(log)
	authSvc := auth.NewService(db, cfg)
	orderSvc := order.NewService(db)
	billingSvc := billing.NewService(db)

	app := fiber.New(fiber.Config{
		BodyLimit:    int(cfg.MaxUploadSize) + 1<<20,
		ErrorHandler: httpx.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logging.RequestLogger(log))

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Use("/ws", realtime.UpgradeMiddleware())
	app.Get("/ws", realtime.Handler(hub, authSvc.IsStaffToken))

	// /api/v1 is kept as an alias for older frontend builds. It must be
	// registered first: the /api auth middleware prefix-matches /api/v1
	// and would otherwise shadow the alias's public routes.
	registerRoutes(app.Group("/api/v1"), cfg, db, hub, authSvc, orderSvc, billingSvc)
	registerRoutes(app.Group("/api"), cfg, db, hub, authSvc, orderSvc, billingSvc)

	log.Infof("listening on port %s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}

func registerRoutes(
	api fiber.Router,
	cfg *config.Config,
	db *gorm.DB,
	hub *realtime.Hub,
	authSvc *auth.Service,
	orderSvc *order.Service,
	billingSvc *billing.Service,
) {
	// Public: auth
	api.Post("/auth/login", auth.LoginHandler(authSvc))
	api.Post("/auth/refresh", auth.RefreshHandler(authSvc))
	api.Post("/auth/logout", auth.LogoutHandler(authSvc))

	// Public: customer ordering surface
	api.Get("/menus/visible", menu.VisibleHandler(db))
	api.Get("/settings", settings.GetHandler(db))
	api.Post("/orders", order.CreateHandler(orderSvc, hub))
	api.Get("/tables/:id/bill", billing.GetTableBillHandler(billingSvc))
	api.Post("/tables/:id/call-staff", table.CallStaffHandler(db, hub))

	// Protected. Roles are attached per route because most resources share
	// their path prefix across roles (staff reads tables, admin writes them).
	protected := api.Group("", auth.JWTMiddleware(cfg))
	protected.Get("/auth/me", auth.MeHandler(db))

	adminOnly := auth.RequireRole(models.RoleAdmin)
	frontOfHouse := auth.RequireRole(models.RoleAdmin, models.RoleStaff)
	anyStaff := auth.RequireRole(models.RoleAdmin, models.RoleStaff, models.RoleKitchen)

	// Order flow (staff + kitchen dashboards)
	protected.Get("/orders", anyStaff, order.ListHandler(db, cfg))
	protected.Get("/orders/:id", anyStaff, order.GetHandler(db))
	protected.Patch("/orders/items/:id/status", anyStaff, order.UpdateItemStatusHandler(orderSvc, db, hub))

	// Tables and checkout
	protected.Get("/tables", frontOfHouse, table.ListHandler(db))
	protected.Get("/tables/:id", frontOfHouse, table.GetHandler(db))
	protected.Post("/tables/:id/resolve-call", frontOfHouse, table.ResolveCallHandler(db, hub))
	protected.Post("/tables/:id/checkout", frontOfHouse, billing.CheckoutHandler(billingSvc, hub))
	protected.Post("/tables", adminOnly, table.CreateHandler(db))
	protected.Put("/tables/:id", adminOnly, table.UpdateHandler(db, hub))
	protected.Delete("/tables/:id", adminOnly, table.DeleteHandler(db))

	// Bill history
	protected.Get("/bills", frontOfHouse, billing.ListHandler(db, cfg))
	protected.Get("/bills/:id", frontOfHouse, billing.GetHandler(db))

	// Catalog
	protected.Get("/menus", frontOfHouse, menu.ListHandler(db))
	protected.Get("/menus/:id", frontOfHouse, menu.GetHandler(db))
	protected.Post("/menus", adminOnly, menu.CreateHandler(db))
	protected.Put("/menus/:id", adminOnly, menu.UpdateHandler(db))
	protected.Delete("/menus/:id", adminOnly, menu.DeleteHandler(db))
	protected.Get("/categories", frontOfHouse, category.ListHandler(db))
	protected.Post("/categories", adminOnly, category.CreateHandler(db))
	protected.Put("/categories/:id", adminOnly, category.UpdateHandler(db))
	protected.Delete("/categories/:id", adminOnly, category.DeleteHandler(db))

	// Admin configuration
	protected.Put("/settings", adminOnly, settings.UpdateHandler(db))
	protected.Post("/uploads/image", adminOnly, upload.ImageHandler(cfg))
	protected.Get("/users", adminOnly, user.ListHandler(db))
	protected.Post("/users", adminOnly, user.CreateHandler(db))
	protected.Put("/users/:id", adminOnly, user.UpdateHandler(db))
	protected.Delete("/users/:id", adminOnly, user.DeleteHandler(db))
	protected.Get("/analytics/sales/daily", adminOnly, analytics.DailySalesHandler(db))
	protected.Get("/analytics/menus/top", adminOnly, analytics.TopMenusHandler(db))
}
