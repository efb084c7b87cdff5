package main

import (
	"database/sql"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/phamduchai/agrimart-backend/internal/cart"
	"github.com/phamduchai/agrimart-backend/internal/checkout"
	"github.com/phamduchai/agrimart-backend/internal/config"
	"github.com/phamduchai/agrimart-backend/internal/events"
	"github.com/phamduchai/agrimart-backend/internal/inventory"
	"github.com/phamduchai/agrimart-backend/internal/order"
	"github.com/phamduchai/agrimart-backend/internal/product"
	"github.com/phamduchai/agrimart-backend/internal/user"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	app := fiber.New()
	setupCORS(app)

	db := mustOpenDB(cfg.DatabaseURL)
	defer db.Close()
	ensureSchema(db)

	// product catalog with optional Redis read-through cache
	var productCache product.Cache = product.NoopCache{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		productCache = product.NewRedisCache(rdb, 5*time.Minute)
	}
	productService := product.NewService(product.NewPostgresRepository(db), productCache)
	productHandler := product.NewHandler(productService)

	ledger := inventory.NewPostgresLedger(db, productService.InvalidateStock)

	cartService := cart.NewService(cart.NewPostgresRepository(db), productService)
	cartHandler := cart.NewHandler(cartService)

	orderService := order.NewService(order.NewPostgresRepository(db))
	orderHandler := order.NewHandler(orderService)

	var publisher events.Publisher = events.LogPublisher{}
	if cfg.AMQPURL != "" {
		rabbit, err := events.NewRabbitMQPublisher(cfg.AMQPURL)
		if err != nil {
			log.Printf("rabbitmq unavailable, falling back to log publisher: %v", err)
		} else {
			defer rabbit.Close()
			publisher = rabbit
		}
	}

	orchestrator := checkout.NewOrchestrator(
		cartService,
		orderService,
		ledger,
		checkout.NewPostgresIdempotencyStore(db),
		publisher,
		checkout.NewPostgresRecorder(db),
		checkout.PricingConfig{
			FreeShippingThreshold: cfg.FreeShippingThreshold,
			FlatRate:              cfg.ShippingFlatRate,
			ExpeditedRate:         cfg.ExpeditedShippingRate,
		},
	)
	checkoutHandler := checkout.NewHandler(orchestrator)

	// catalog reads stay public; everything else requires a JWT
	productHandler.RegisterPublicRoutes(app)
	app.Use(user.Protect(cfg.JWTSecret))
	productHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)
	checkoutHandler.RegisterProtectedRoutes(app)

	log.Printf("starting server on :%s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))
}

func mustOpenDB(dbURL string) *sql.DB {
	if dbURL == "" {
		panic("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		panic(err)
	}
	if err := db.Ping(); err != nil {
		panic(err)
	}
	return db
}

func ensureSchema(db *sql.DB) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			product_id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			origin TEXT NOT NULL DEFAULT '',
			price BIGINT NOT NULL DEFAULT 0,
			count_in_stock INT NOT NULL DEFAULT 0 CHECK (count_in_stock >= 0),
			sold INT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			user_id INT PRIMARY KEY,
			items JSONB NOT NULL DEFAULT '[]',
			total_price BIGINT NOT NULL DEFAULT 0,
			version INT NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			user_id INT NOT NULL,
			items JSONB NOT NULL DEFAULT '[]',
			shipping_address JSONB NOT NULL DEFAULT '{}',
			payment_method TEXT NOT NULL DEFAULT '',
			items_price BIGINT NOT NULL DEFAULT 0,
			shipping_price BIGINT NOT NULL DEFAULT 0,
			total_price BIGINT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			is_paid BOOLEAN NOT NULL DEFAULT FALSE,
			paid_at TIMESTAMPTZ,
			payment_ref TEXT NOT NULL DEFAULT '',
			is_delivered BOOLEAN NOT NULL DEFAULT FALSE,
			delivered_at TIMESTAMPTZ,
			cancel_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS orders_user_id_idx ON orders (user_id)`,
		`CREATE TABLE IF NOT EXISTS idempotency_keys (
			key TEXT PRIMARY KEY,
			user_id INT NOT NULL,
			order_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS reconciliation_log (
			id SERIAL PRIMARY KEY,
			op TEXT NOT NULL,
			order_id TEXT NOT NULL DEFAULT '',
			user_id INT NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			panic(err)
		}
	}
}
