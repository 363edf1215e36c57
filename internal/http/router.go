package api

import (
	"log"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	"modelhub/internal/app"
	intconfig "modelhub/internal/config"
	"modelhub/internal/controller"
	h "modelhub/internal/http/handlers"
	"modelhub/internal/http/middleware"
	"modelhub/internal/store"
	"modelhub/internal/view"
)

// NewRouter assembles the middleware stack, the auth and system endpoints,
// and one resource group per registered type.
func NewRouter(env intconfig.Env, a *app.App, st store.Store, views *view.Resolver) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		gin.Recovery(),
		middleware.CORS(env.CORSOrigins),
		middleware.CurrentUser(st, a.Users, []byte(env.JWTSecret)),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		auth := api.Group("/auth")
		authH := h.Auth{Store: st, Users: a.Users, Secret: []byte(env.JWTSecret)}
		auth.POST("/login", authH.Login)
		auth.POST("/register", authH.Register)
	}

	r.GET("/login", loginPage(views, "login"))
	r.GET("/signup", loginPage(views, "signup"))

	root := r.Group("")
	for _, ct := range a.Controllers {
		ct.Mount(root)
	}

	return r
}

// loginPage renders the generic login or signup template directly; these
// pages have no backing resource.
func loginPage(views *view.Resolver, kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path, ok := views.FindGeneric(kind)
		if !ok {
			c.String(stdhttp.StatusNotFound, "no %s page", kind)
			return
		}
		data := view.Data{
			"User": controller.CurrentUser(c),
			"Path": c.Request.URL.Path,
		}
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Status(stdhttp.StatusOK)
		if err := views.Render(c.Writer, path, data); err != nil {
			log.Printf("render %s page: %v", kind, err)
		}
	}
}
