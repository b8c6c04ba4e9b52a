package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	"tradepost/app"
	"tradepost/app/item"
	"tradepost/domain"
	"tradepost/infra"
	"tradepost/infra/rabbitmq"
	"tradepost/internal/middleware"
	"tradepost/pkg/aws"
	"tradepost/pkg/config"
	"tradepost/pkg/events"
	"tradepost/pkg/httperror"
	"tradepost/pkg/logger"
	"tradepost/pkg/rates"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Request any
type Response any

type HandlerInterface[R Request, Res Response] interface {
	Handle(ctx context.Context, req *R) (*Res, error)
}

func handle[R Request, Res Response](handler HandlerInterface[R, Res]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req R

		if err := c.BodyParser(&req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
			return writeError(c, httperror.BadRequest(
				"request.invalid_body",
				"Invalid body",
				fiber.Map{"error": err.Error()},
			))
		}

		if err := c.ParamsParser(&req); err != nil {
			return writeError(c, httperror.BadRequest(
				"request.invalid_path_params",
				"Invalid path params",
				fiber.Map{"error": err.Error()},
			))
		}

		if err := c.QueryParser(&req); err != nil {
			return writeError(c, httperror.BadRequest(
				"request.invalid_query_params",
				"Invalid query params",
				fiber.Map{"error": err.Error()},
			))
		}

		ctx := c.UserContext()

		res, err := handler.Handle(ctx, &req)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(res)
	}
}

// handleImageUpload reads the multipart "image" field and hands the bytes to
// the upload handler.
func handleImageUpload(handler *item.UploadItemImageHandler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := item.UploadItemImageRequest{ItemID: c.Params("itemId")}

		header, err := c.FormFile("image")
		if err == nil {
			if header.Size > item.MaxImageSize {
				return writeError(c, httperror.BadRequest("item.image.file_too_large", "File size must not exceed 5MB", nil))
			}

			file, err := header.Open()
			if err != nil {
				return writeError(c, httperror.BadRequest("request.invalid_file", "Unreadable file", fiber.Map{"error": err.Error()}))
			}
			defer file.Close()

			req.Data, err = io.ReadAll(io.LimitReader(file, item.MaxImageSize+1))
			if err != nil {
				return writeError(c, httperror.BadRequest("request.invalid_file", "Unreadable file", fiber.Map{"error": err.Error()}))
			}
			req.ContentType = header.Header.Get(fiber.HeaderContentType)
			req.FileName = header.Filename
		}

		res, err := handler.Handle(c.UserContext(), &req)
		if err != nil {
			return writeError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

type dependencies struct {
	repository app.Repository
	rates      app.RateProvider
	publisher  events.Publisher
	images     item.ObjectStore
	jwtSecret  string
}

func newApp(deps dependencies) *fiber.App {
	server := fiber.New(fiber.Config{
		IdleTimeout:  5 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Concurrency:  256 * 1024,
		BodyLimit:    2 * item.MaxImageSize,
	})

	schemas := domain.DefaultSchemas()
	ledger := app.NewLedger(deps.repository, schemas)

	createItemHandler := item.NewCreateItemHandler(deps.repository, schemas, deps.publisher)
	getItemsHandler := item.NewGetItemsHandler(deps.repository)
	getItemHandler := item.NewGetItemHandler(deps.repository)
	updateItemHandler := item.NewUpdateItemHandler(deps.repository, deps.publisher)
	getItemAttributesHandler := item.NewGetItemAttributesHandler(deps.repository)
	updateItemAttributesHandler := item.NewUpdateItemAttributesHandler(deps.repository, schemas, deps.publisher)
	uploadItemImageHandler := item.NewUploadItemImageHandler(deps.repository, deps.images, deps.publisher)

	recordTransactionHandler := app.NewRecordTransactionHandler(ledger, deps.publisher)
	getTransactionsHandler := app.NewGetTransactionsHandler(deps.repository)
	getCashTotalsHandler := app.NewGetCashTotalsHandler(deps.repository)
	saveReconciliationHandler := app.NewSaveReconciliationHandler(deps.repository, deps.publisher)
	getReconciliationsHandler := app.NewGetReconciliationsHandler(deps.repository)
	getExchangeRatesHandler := app.NewGetExchangeRatesHandler(deps.rates)
	convertPriceHandler := app.NewConvertPriceHandler(deps.rates)
	auditStockHandler := app.NewAuditStockHandler(deps.repository)

	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	routes := server.Group("/api/v1")
	if deps.jwtSecret != "" {
		routes.Use(middleware.NewTerminalAuthMiddleware(deps.jwtSecret))
	}

	routes.Post("/items", handle[item.CreateItemRequest, item.CreateItemResponse](createItemHandler))
	routes.Get("/items", handle[item.GetItemsRequest, item.GetItemsResponse](getItemsHandler))
	routes.Get("/items/:itemId", handle[item.GetItemRequest, item.GetItemResponse](getItemHandler))
	routes.Put("/items/:itemId", handle[item.UpdateItemRequest, item.UpdateItemResponse](updateItemHandler))
	routes.Get("/items/:itemId/attributes", handle[item.GetItemAttributesRequest, item.GetItemAttributesResponse](getItemAttributesHandler))
	routes.Put("/items/:itemId/attributes", handle[item.UpdateItemAttributesRequest, item.UpdateItemAttributesResponse](updateItemAttributesHandler))
	routes.Post("/items/:itemId/image", handleImageUpload(uploadItemImageHandler))

	routes.Post("/transactions", handle[app.RecordTransactionRequest, app.RecordTransactionResponse](recordTransactionHandler))
	routes.Get("/transactions", handle[app.GetTransactionsRequest, app.GetTransactionsResponse](getTransactionsHandler))
	routes.Get("/cash-totals", handle[app.GetCashTotalsRequest, app.GetCashTotalsResponse](getCashTotalsHandler))
	routes.Post("/reconciliations", handle[app.SaveReconciliationRequest, app.SaveReconciliationResponse](saveReconciliationHandler))
	routes.Get("/reconciliations", handle[app.GetReconciliationsRequest, app.GetReconciliationsResponse](getReconciliationsHandler))

	routes.Get("/exchange-rates", handle[app.GetExchangeRatesRequest, app.GetExchangeRatesResponse](getExchangeRatesHandler))
	routes.Post("/pricing/convert", handle[app.ConvertPriceRequest, app.ConvertPriceResponse](convertPriceHandler))
	routes.Get("/audit/stock", handle[app.AuditStockRequest, app.AuditStockResponse](auditStockHandler))

	return server
}

func main() {
	appConfig := config.Read()
	flush := logger.Install(appConfig)
	defer flush()

	zap.L().Info("app starting...",
		zap.String("env", appConfig.AppEnv),
		zap.String("storage", appConfig.StorageDriver),
	)

	store, err := infra.OpenStore(*appConfig)
	if err != nil {
		zap.L().Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	if err := store.Migrate(context.Background()); err != nil {
		zap.L().Fatal("Failed to migrate store", zap.Error(err))
	}

	rateCache, err := rates.NewCacheFromConfig(appConfig)
	if err != nil {
		zap.L().Fatal("Failed to configure exchange rates", zap.Error(err))
	}

	deps := dependencies{
		repository: store,
		rates:      rateCache,
		jwtSecret:  appConfig.JWTSecret,
	}

	if appConfig.RabbitMQURL != "" {
		publisher, err := rabbitmq.NewPublisher(appConfig.RabbitMQURL, appConfig.ServiceName)
		if err != nil {
			zap.L().Fatal("Failed to connect event publisher", zap.Error(err))
		}
		defer publisher.Close()
		deps.publisher = publisher
	} else {
		zap.L().Warn("RABBITMQ_URL not set, domain events are disabled")
	}

	if appConfig.AWSBucket != "" {
		deps.images = aws.NewS3Bucket(*appConfig)
	} else {
		zap.L().Warn("AWS_BUCKET not set, image uploads are disabled")
	}

	if appConfig.JWTSecret == "" {
		zap.L().Warn("JWT_SECRET not set, terminal authentication is disabled")
	}

	server := newApp(deps)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitorPool(ctx, store)

	go func() {
		if err := server.Listen(fmt.Sprintf("0.0.0.0:%s", appConfig.Port)); err != nil {
			zap.L().Error("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	zap.L().Info("Server started on port", zap.String("port", appConfig.Port))

	gracefulShutdown(server)
}

type poolReporter interface {
	GetPoolStats() map[string]any
}

// monitorPool logs connection pool statistics for stores that expose them.
func monitorPool(ctx context.Context, store any) {
	reporter, ok := store.(poolReporter)
	if !ok {
		return
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := reporter.GetPoolStats()
			zap.L().Info("Connection pool stats",
				zap.Any("max_open", stats["max_open_connections"]),
				zap.Any("open", stats["open_connections"]),
				zap.Any("in_use", stats["in_use"]),
				zap.Any("idle", stats["idle"]),
				zap.Any("wait_count", stats["wait_count"]),
				zap.Any("wait_duration_ms", stats["wait_duration_ms"]),
			)
		}
	}
}

func gracefulShutdown(server *fiber.App) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	zap.L().Info("Shutting down server...")

	if err := server.ShutdownWithTimeout(5 * time.Second); err != nil {
		zap.L().Error("Error during server shutdown", zap.Error(err))
	}

	zap.L().Info("Server gracefully stopped")
}

func writeError(c *fiber.Ctx, err error) error {
	var httpErr *httperror.Error
	if errors.As(err, &httpErr) {
		payload := fiber.Map{
			"code":    httpErr.Code,
			"message": httpErr.Message,
		}

		if httpErr.Details != nil {
			payload["details"] = httpErr.Details
		}

		if httpErr.Status >= fiber.StatusInternalServerError {
			zap.L().Error("Handler returned server error", zap.String("code", httpErr.Code), zap.Error(httpErr))
		} else {
			zap.L().Warn("Handler returned client error", zap.String("code", httpErr.Code), zap.Error(httpErr))
		}

		return c.Status(httpErr.Status).JSON(payload)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		zap.L().Warn("Fiber validation error", zap.String("message", fiberErr.Message), zap.Error(err))
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"code":    "request.invalid",
			"message": fiberErr.Message,
		})
	}

	zap.L().Error("Unhandled error", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"code":    "internal_server_error",
		"message": "Internal server error.",
	})
}
