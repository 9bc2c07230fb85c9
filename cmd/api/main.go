package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendpay/internal/apperr"
	"attendpay/internal/attendance"
	"attendpay/internal/auth"
	"attendpay/internal/config"
	"attendpay/internal/directory"
	"attendpay/internal/httpmiddleware"
	"attendpay/internal/payroll"
	"attendpay/internal/store"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func openStore(cfg config.App) (store.Store, error) {
	switch cfg.StoreBackend {
	case "memory":
		return store.NewMemory(), nil
	case "file":
		return store.NewFile(cfg.StoreFile)
	case "redis":
		return store.NewRedis(cfg.RedisAddr), nil
	case "postgres":
		return store.NewPostgres(context.Background(), cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// seedDefaults writes the demo collections for any state key still absent.
func seedDefaults(ctx context.Context, kv store.Store) error {
	for _, seed := range []func(context.Context) error{
		auth.NewRepository(kv).EnsureSeed,
		directory.NewRepository(kv).EnsureSeed,
		attendance.NewRepository(kv).EnsureSeed,
	} {
		if err := seed(ctx); err != nil {
			return err
		}
	}
	return nil
}

func runHTTP(cfg config.App) error {
	kv, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = kv.Close() }()
	log.Printf("state store: %s", cfg.StoreBackend)

	if err := seedDefaults(context.Background(), kv); err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}

	r := newRouter(cfg, kv)

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// newRouter wires every route and middleware over the given state store.
func newRouter(cfg config.App, kv store.Store) *gin.Engine {
	userRepo := auth.NewRepository(kv)
	dirRepo := directory.NewRepository(kv)
	attRepo := attendance.NewRepository(kv)

	authSvc := auth.NewService(userRepo)
	dirSvc := directory.NewService(dirRepo)
	attSvc := attendance.NewService(attRepo, dirRepo)

	r := gin.New()

	// Recovery middleware
	r.Use(gin.Recovery())

	// Custom logger
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	// CORS middleware
	r.Use(corsMiddleware())

	// Security headers
	r.Use(securityHeaders())

	// Rate limiting
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitBurst, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		if err := kv.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": true})
	})

	r.POST("/v1/auth/register", func(c *gin.Context) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Phone    string `json:"phone"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user, err := authSvc.Register(c.Request.Context(), auth.RegisterInput{
			Name: req.Name, Email: req.Email, Phone: req.Phone,
			Password: req.Password, Role: req.Role,
		})
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": user.ID, "name": user.Name, "email": user.Email, "role": user.Role})
	})

	r.POST("/v1/auth/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user, err := authSvc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			abortWith(c, err)
			return
		}
		token, exp, err := auth.Issue(user.ID, user.Role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_at": exp.Unix(),
			"user":       gin.H{"id": user.ID, "name": user.Name, "email": user.Email, "role": user.Role},
		})
	})

	authGroup := r.Group("/v1", auth.RequireAuth(cfg.JWTSigningKey, cfg.JWTIssuer))
	adminGroup := authGroup.Group("", auth.RequireRole(auth.RoleAdmin))

	authGroup.POST("/auth/logout", func(c *gin.Context) {
		if err := authSvc.Logout(c.Request.Context()); err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup.GET("/auth/session", func(c *gin.Context) {
		user, err := authSvc.Session(c.Request.Context())
		if err != nil {
			abortWith(c, err)
			return
		}
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": gin.H{"id": user.ID, "name": user.Name, "email": user.Email, "role": user.Role}})
	})

	authGroup.GET("/employees", func(c *gin.Context) {
		employees, err := dirSvc.Search(c.Request.Context(), c.Query("q"))
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"employees": employees})
	})

	adminGroup.POST("/employees", func(c *gin.Context) {
		in, ok := bindEmployeeInput(c)
		if !ok {
			return
		}
		emp, err := dirSvc.Add(c.Request.Context(), in)
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusCreated, emp)
	})

	adminGroup.PUT("/employees/:id", func(c *gin.Context) {
		in, ok := bindEmployeeInput(c)
		if !ok {
			return
		}
		emp, err := dirSvc.Update(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusOK, emp)
	})

	adminGroup.DELETE("/employees/:id", func(c *gin.Context) {
		if err := dirSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			abortWith(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	authGroup.POST("/attendance", func(c *gin.Context) {
		var req struct {
			EmployeeID string `json:"employee_id"`
			Date       string `json:"date"`
			Status     string `json:"status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		employeeID, ok := resolveActor(c, req.EmployeeID)
		if !ok {
			return
		}
		rec, err := attSvc.Mark(c.Request.Context(), employeeID, req.Date, req.Status)
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	})

	authGroup.POST("/attendance/checkout", func(c *gin.Context) {
		var req struct {
			EmployeeID string `json:"employee_id"`
		}
		// Body is optional for employees checking themselves out.
		_ = c.ShouldBindJSON(&req)
		employeeID, ok := resolveActor(c, req.EmployeeID)
		if !ok {
			return
		}
		rec, err := attSvc.CheckOut(c.Request.Context(), employeeID)
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	})

	authGroup.GET("/attendance/today", func(c *gin.Context) {
		claims, _ := auth.ClaimsFrom(c)
		rec, err := attSvc.TodayStatus(c.Request.Context(), claims.Subject)
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"marked": rec != nil, "record": rec})
	})

	authGroup.GET("/attendance/history", func(c *gin.Context) {
		employeeID, ok := resolveActor(c, c.Query("employee_id"))
		if !ok {
			return
		}
		records, err := attSvc.HistoryFor(c.Request.Context(), employeeID)
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	})

	adminGroup.GET("/attendance/day", func(c *gin.Context) {
		overview, err := attSvc.DayOverview(c.Request.Context(), c.Query("date"))
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusOK, overview)
	})

	adminGroup.GET("/payroll", func(c *gin.Context) {
		year, month, ok := monthYearParams(c)
		if !ok {
			return
		}
		statements, err := payrollBatch(c.Request.Context(), dirRepo, attRepo, year, month)
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "statements": statements})
	})

	adminGroup.GET("/payroll/export", func(c *gin.Context) {
		year, month, ok := monthYearParams(c)
		if !ok {
			return
		}
		statements, err := payrollBatch(c.Request.Context(), dirRepo, attRepo, year, month)
		if err != nil {
			abortWith(c, err)
			return
		}
		data, err := payroll.ExportXLSX(statements, year, month)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		name := fmt.Sprintf("payroll-%04d-%02d.xlsx", year, month)
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	})

	authGroup.GET("/payroll/self", func(c *gin.Context) {
		claims, _ := auth.ClaimsFrom(c)
		year, month, ok := monthYearParams(c)
		if !ok {
			return
		}
		emp, err := dirSvc.Get(c.Request.Context(), claims.Subject)
		if err != nil {
			abortWith(c, err)
			return
		}
		if emp == nil {
			abortWith(c, apperr.NotFound("no employee record for this account"))
			return
		}
		records, err := attRepo.Records(c.Request.Context())
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusOK, payroll.Compute(*emp, records, year, month))
	})

	return r
}

// payrollBatch recomputes every employee's statement for the month.
func payrollBatch(ctx context.Context, dirRepo *directory.Repository, attRepo *attendance.Repository, year, month int) ([]payroll.Statement, error) {
	employees, err := dirRepo.Employees(ctx)
	if err != nil {
		return nil, err
	}
	records, err := attRepo.Records(ctx)
	if err != nil {
		return nil, err
	}
	return payroll.ComputeAll(employees, records, year, month), nil
}

// resolveActor decides whose attendance the request targets: employees
// always act on themselves, admins must name an employee id.
func resolveActor(c *gin.Context, requested string) (string, bool) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return "", false
	}
	if claims.Role == auth.RoleEmployee {
		return claims.Subject, true
	}
	if requested == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "employee_id required"})
		return "", false
	}
	return requested, true
}

// monthYearParams reads month= and year=, defaulting to the current month.
func monthYearParams(c *gin.Context) (int, int, bool) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if v := c.Query("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return 0, 0, false
		}
		year = parsed
	}
	if v := c.Query("month"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 12 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
			return 0, 0, false
		}
		month = parsed
	}
	return year, month, true
}

func bindEmployeeInput(c *gin.Context) (directory.Input, bool) {
	var req struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		Department string `json:"department"`
		Position   string `json:"position"`
		Salary     string `json:"salary"`
		JoinDate   string `json:"joinDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return directory.Input{}, false
	}
	return directory.Input{
		Name: req.Name, Email: req.Email, Phone: req.Phone,
		Department: req.Department, Position: req.Position,
		Salary: req.Salary, JoinDate: req.JoinDate,
	}, true
}

// abortWith maps a classified error to its HTTP status.
func abortWith(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindAuth:
		status = http.StatusUnauthorized
	case apperr.KindNotFound:
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
