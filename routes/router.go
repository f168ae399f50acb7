package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/board/config"
	"github.com/cppla/board/controllers"
	"github.com/cppla/board/middleware"
	"github.com/cppla/board/models"
	"github.com/cppla/board/services"
	"github.com/cppla/board/storage"
	"github.com/cppla/board/utils"
)

// Deps are the collaborators the router wires into controllers.
type Deps struct {
	Config    config.AppConfig
	DB        *gorm.DB
	Tokens    *services.TokenService
	Blacklist *utils.TokenBlacklist
	Cache     *utils.Cache
	Files     storage.Storage
}

// PublicRoutes are reachable without a bearer token. Every other /api route requires one.
var PublicRoutes = middleware.NewRouteSet(
	"POST /api/auth/signup",
	"POST /api/auth/login",
	"GET /api/auth/users/:id",
	"GET /api/boards",
	"GET /api/boards/:id",
	"GET /api/boards/search",
	"GET /api/boards/category/:id",
	"GET /api/boards/:id/comments",
	"GET /api/categories",
	"GET /api/categories/:id",
	"GET /api/health",
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.Gin.Mode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	controllers.RegisterValidation()

	r := gin.New()
	// Access log and panic recovery go to their own rolling file
	accessLog := utils.NewRollingFileLogger(cfg.Gin.LogPath, cfg.Log)
	r.Use(ginzap.Ginzap(accessLog, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(accessLog, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.App.AllowedOrigins) == 0 || (len(cfg.App.AllowedOrigins) == 1 && cfg.App.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.App.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Uploaded files are served straight from disk when stored locally
	if local, ok := deps.Files.(*storage.Local); ok {
		r.Static("/images", local.Dir(storage.PurposeImage))
		r.Static("/profiles", local.Dir(storage.PurposeProfile))
	}

	users := services.NewUserService(deps.DB, deps.Tokens, deps.Files, cfg.IsAdminLoginID)
	boards := services.NewBoardService(deps.DB)
	comments := services.NewCommentService(deps.DB)
	categories := services.NewCategoryService(deps.DB, deps.Cache)

	authController := controllers.NewAuthController(users, boards, comments, deps.Blacklist)
	boardController := controllers.NewBoardController(boards)
	commentController := controllers.NewCommentController(comments)
	categoryController := controllers.NewCategoryController(categories)
	uploadController := controllers.NewUploadController(deps.Files)

	api := r.Group("/api")
	api.Use(middleware.Authenticate(deps.Tokens, deps.Blacklist), middleware.RequireUser(PublicRoutes))

	api.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", middleware.NewRateLimiter(cfg.App.RateLimitPerMinute).Middleware(), authController.SignUp)
	authGroup.POST("/login", middleware.NewRateLimiter(cfg.App.RateLimitPerMinute).Middleware(), authController.Login)
	authGroup.POST("/logout", authController.Logout)
	authGroup.GET("/users/:id", authController.GetUser)
	authGroup.GET("/me", authController.Me)
	authGroup.PUT("/me", authController.UpdateMe)
	authGroup.DELETE("/me", authController.DeleteMe)
	authGroup.PUT("/me/password", authController.ChangePassword)
	authGroup.POST("/me/profile-image", authController.UploadProfileImage)
	authGroup.GET("/me/boards", authController.MyBoards)
	authGroup.GET("/me/comments", authController.MyComments)

	boardsGroup := api.Group("/boards")
	boardsGroup.GET("", boardController.List)
	boardsGroup.POST("", boardController.Create)
	boardsGroup.GET("/search", boardController.Search)
	boardsGroup.GET("/category/:id", boardController.ListByCategory)
	boardsGroup.GET("/:id", boardController.Get)
	boardsGroup.PUT("/:id", boardController.Update)
	boardsGroup.DELETE("/:id", boardController.Delete)
	boardsGroup.POST("/:id/like", boardController.ToggleLike)
	boardsGroup.GET("/:id/comments", commentController.List)
	boardsGroup.POST("/:id/comments", commentController.Create)
	boardsGroup.PUT("/:id/comments/:commentId", commentController.Update)
	boardsGroup.DELETE("/:id/comments/:commentId", commentController.Delete)

	manageCategories := middleware.RequireCapability(users, models.CapManageCategories)
	categoriesGroup := api.Group("/categories")
	categoriesGroup.GET("", categoryController.List)
	categoriesGroup.GET("/:id", categoryController.Get)
	categoriesGroup.POST("", manageCategories, categoryController.Create)
	categoriesGroup.PUT("/:id", manageCategories, categoryController.Update)
	categoriesGroup.DELETE("/:id", manageCategories, categoryController.Delete)

	uploadGroup := api.Group("/upload")
	uploadGroup.POST("/image", uploadController.UploadImage)
	uploadGroup.POST("/images", uploadController.UploadImages)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, "api route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, "not found")
	})

	return r
}
