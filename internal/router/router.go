package router

import (
	"log/slog"

	"community_hub/internal/handler"
	"community_hub/internal/middleware"
	"community_hub/internal/pkg"

	"github.com/gin-gonic/gin"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Users       handler.UserService
	Communities handler.CommunityService
	Tokens      *pkg.TokenManager
	Health      map[string]handler.Pinger
	Logger      *slog.Logger

	CORSAllowedOrigins []string
	// ImageDir is served under ImageURLPrefix when images are stored locally.
	ImageDir       string
	ImageURLPrefix string
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.CORS(d.CORSAllowedOrigins))

	user := handler.NewUserHandler(d.Users)
	community := handler.NewCommunityHandler(d.Communities)
	health := handler.NewHealthHandler(d.Health)

	auth := middleware.Auth(d.Tokens)

	r.GET("/health", health.Health)
	if d.ImageDir != "" && d.ImageURLPrefix != "" {
		r.Static(d.ImageURLPrefix, d.ImageDir)
	}

	api := r.Group("/api")
	api.GET("/health", health.Health)

	// users
	userGroup := api.Group("/users")
	{
		userGroup.POST("", user.Create)
		userGroup.GET("", user.List)
		userGroup.POST("/login", user.Login)
		userGroup.POST("/signout", user.Signout)
		userGroup.GET("/profile", auth, user.Profile)
		userGroup.GET("/:id", user.Profile)
		userGroup.PUT("/:id", user.Update)
		userGroup.DELETE("/:id", user.Archive)
	}

	// communities
	communityGroup := api.Group("/communities")
	{
		communityGroup.GET("", middleware.OptionalAuth(d.Tokens), community.List)
		communityGroup.GET("/:id", community.Get)
		communityGroup.POST("", auth, community.Create)
		communityGroup.PUT("/:id", auth, community.Update)
		communityGroup.DELETE("/:id", auth, community.Delete)
		communityGroup.POST("/:id/image", auth, community.UploadImage)
		communityGroup.POST("/:id/members", auth, community.AddMember)
		communityGroup.DELETE("/:id/members/:userId", auth, community.RemoveMember)
	}

	return r
}
