// Package server собирает HTTP-маршруты и запускает HTTP-сервер.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"serotonyl.ru/ecoquest/internal/server/httpx"
	"serotonyl.ru/ecoquest/internal/server/middleware"
)

// routes — обработчик, который вешает свои маршруты на группу.
type routes interface {
	Register(rg *gin.RouterGroup)
}

// adminRoutes — обработчик с маршрутами /admin.
type adminRoutes interface {
	RegisterAdmin(rg *gin.RouterGroup)
}

// authRoutes — обработчик с маршрутами /auth.
type authRoutes interface {
	RegisterAuth(rg *gin.RouterGroup)
}

type accountRoutes interface {
	routes
	adminRoutes
	authRoutes
}

type publicAndAdminRoutes interface {
	routes
	adminRoutes
}

// Handlers — все обработчики приложения.
type Handlers struct {
	Account     accountRoutes
	Wallet      routes
	Users       routes
	Progression routes
	Trash       publicAndAdminRoutes
	Quiz        routes
	Purchase    publicAndAdminRoutes
	Catalog     publicAndAdminRoutes
}

// RouterOptions — настройки роутера.
type RouterOptions struct {
	JWTSecret    []byte
	AllowOrigins []string
	Limiter      *middleware.RateLimiter // nil — без ограничения
}

// NewRouter собирает gin.Engine со всеми маршрутами.
//
//	/auth     — без аутентификации
//	/users    — Auth
//	/purchase — Auth
//	/products, /chapters, /levels — публичное чтение каталога
//	/admin    — Auth + RequireAdmin
func NewRouter(h Handlers, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logger())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.MaxAge = 12 * time.Hour
	if len(opts.AllowOrigins) == 0 || (len(opts.AllowOrigins) == 1 && opts.AllowOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.AllowOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		httpx.OK(c, http.StatusOK, "ok", nil)
	})

	auth := middleware.Auth(opts.JWTSecret)
	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if opts.Limiter != nil {
		limit = opts.Limiter.Middleware()
	}

	h.Account.RegisterAuth(r.Group("/auth", limit))

	users := r.Group("/users", auth, limit)
	{
		h.Account.Register(users)
		h.Wallet.Register(users)
		h.Users.Register(users)
		h.Progression.Register(users)
		h.Trash.Register(users)
		h.Quiz.Register(users)
	}

	h.Purchase.Register(r.Group("/purchase", auth, limit))

	h.Catalog.Register(r.Group("", limit))

	admin := r.Group("/admin", auth, middleware.RequireAdmin())
	{
		h.Catalog.RegisterAdmin(admin)
		h.Account.RegisterAdmin(admin)
		h.Trash.RegisterAdmin(admin)
		h.Purchase.RegisterAdmin(admin)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httpx.Response{Message: "找不到該路徑"})
	})
	return r
}
