package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/inquiry-service/api"
	"github.com/psds-microservice/inquiry-service/internal/handler"
	"github.com/psds-microservice/inquiry-service/internal/model"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"
)

const (
	PathHealth  = "/health"
	PathReady   = "/ready"
	PathSwagger = "/swagger"
	PathUploads = "/uploads"
	PathAPI     = "/api/v1"
)

type Deps struct {
	Authn     *handler.Authenticator
	Auth      *handler.AuthHandler
	Inquiries *handler.InquiryHandler
	Uploads   *handler.UploadHandler
	DB        *gorm.DB
	// UploadDir, when set, is served statically under PathUploads.
	UploadDir string
}

func New(d Deps) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger())
	r.GET(PathHealth, handler.Health)
	r.GET(PathReady, handler.Ready(d.DB))
	r.GET(PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, PathSwagger+"/") })
	r.GET(PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = PathSwagger + "/index.html"
			c.Request.RequestURI = PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(PathSwagger+"/openapi.json"))(c)
	})
	if d.UploadDir != "" {
		r.Static(PathUploads, d.UploadDir)
	}

	v1 := r.Group(PathAPI)
	{
		v1.POST("/auth/login", d.Auth.Login)
	}

	authed := v1.Group("", d.Authn.Middleware())
	{
		authed.GET("/auth/me", d.Auth.Me)
		authed.PUT("/auth/profile", d.Auth.UpdateProfile)

		admin := authed.Group("", handler.RequireRole(model.RoleAdmin))
		admin.POST("/auth/register", d.Auth.Register)
		admin.PUT("/auth/users/:id/active", d.Auth.SetActive)

		authed.GET("/inquiries", d.Inquiries.List)
		authed.POST("/inquiries", d.Inquiries.Create)
		authed.GET("/inquiries/stats/overview", d.Inquiries.Stats)
		authed.GET("/inquiries/:id", d.Inquiries.Get)
		authed.DELETE("/inquiries/:id", d.Inquiries.Delete)
		authed.GET("/inquiries/:id/actions", d.Inquiries.Actions)
		authed.POST("/inquiries/:id/actions/:action", d.Inquiries.Act)

		authed.POST("/uploads", d.Uploads.Upload)
		authed.DELETE("/uploads/:id", d.Uploads.Delete)
	}

	return otelhttp.NewHandler(r, "inquiry-service")
}
