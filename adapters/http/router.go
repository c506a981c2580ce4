package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/internal/domain/profile"
	"github.com/khoahotran/internmatch-client/internal/domain/user"
	"github.com/khoahotran/internmatch-client/pkg/auth"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

// RouterDeps are the stores behind the development backend.
type RouterDeps struct {
	Users    user.Repository
	Profiles profile.Repository
	Media    asset.Repository
	JWT      *auth.JWTService
	MaxBytes int64
	Logger   logger.Logger
}

// NewRouter serves the backend contract the client speaks, under /api/v1.
func NewRouter(serviceName string, deps RouterDeps) *gin.Engine {
	authHandler := NewAuthHandler(deps.Users, deps.JWT, deps.Logger)
	profileHandler := NewProfileHandler(deps.Profiles, deps.Media, deps.Users, deps.MaxBytes, deps.Logger)
	authMiddleware := AuthMiddleware(deps.JWT, deps.Logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(ErrorMiddleware(deps.Logger))
	if deps.MaxBytes > 0 {
		router.MaxMultipartMemory = deps.MaxBytes
	}

	api := router.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

		public := api.Group("/auth")
		{
			public.POST("/authenticate", authHandler.Authenticate)
			public.POST("/google", authHandler.Google)
			public.POST("/register", authHandler.Register)
		}

		private := api.Group("/")
		private.Use(authMiddleware)
		{
			private.PATCH("/users", authHandler.ChangePassword)

			profiles := private.Group("/profiles")
			{
				profiles.GET("/my-profile", profileHandler.GetMyProfile)
				profiles.GET("/profile-picture", profileHandler.GetProfilePicture)
				profiles.GET("/cover-photo", profileHandler.GetCoverPhoto)
				profiles.POST("", profileHandler.CreateProfile)
				profiles.PUT("/:id", profileHandler.UpdateProfile)
				profiles.DELETE("/:id", profileHandler.DeleteProfile)
			}
		}
	}
	return router
}
