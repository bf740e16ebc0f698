package router

import (
	"time"

	"Memoir_Community/internal/handler"
	"Memoir_Community/internal/middleware"
	"Memoir_Community/internal/service"

	"github.com/gin-gonic/gin"
)

// Services 路由需要的业务服务，由main装配
type Services struct {
	Follow     *service.FollowService
	Profile    *service.ProfileService
	Visibility *service.VisibilityService
	Entry      *service.EntryService
	Reconcile  *service.ReconcileService
}

func InitRouter(s Services) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.Timeout(10 * time.Second))

	user := handler.NewUserHandler()
	profile := handler.NewProfileHandler(s.Profile)
	follow := handler.NewFollowHandler(s.Follow)
	entry := handler.NewEntryHandler(s.Entry)
	visibility := handler.NewVisibilityHandler(s.Visibility)
	admin := handler.NewAdminHandler(s.Reconcile)

	// 用户相关接口
	userGroup := r.Group("/api/user")
	{
		userGroup.POST("/register", user.Register)
		userGroup.POST("/login", user.Login)
	}

	// token相关接口
	tokenGroup := r.Group("/api/token")
	{
		tokenGroup.POST("/refresh", user.TokenRefresh)
	}

	// 公开主页（无需登录态）
	r.GET("/api/profile/:handle", profile.GetByHandle)

	// 登录态接口
	authGroup := r.Group("/api/auth")
	authGroup.Use(middleware.AuthMiddleware())
	{
		authGroup.POST("/logout", user.Logout)
		authGroup.POST("/change-password", user.ChangePassword)
	}

	// Profile相关接口
	profileGroup := r.Group("/api/profile")
	profileGroup.Use(middleware.AuthMiddleware())
	{
		profileGroup.POST("/create", profile.Create)
		profileGroup.POST("/flags", profile.UpdateFlags)
		profileGroup.POST("/deactivate", profile.Deactivate)
		profileGroup.POST("/reactivate", profile.Reactivate)
		profileGroup.DELETE("/", profile.Delete)
		profileGroup.POST("/batch", profile.BatchWithCounts)
	}

	// 关注相关接口
	followGroup := r.Group("/api/follow")
	followGroup.Use(middleware.AuthMiddleware())
	{
		followGroup.POST("/", follow.Follow)
		followGroup.GET("/relation", follow.Relation)
		followGroup.GET("/followers", follow.ListFollowers)
		followGroup.GET("/followings", follow.ListFollowings)
	}

	// entry相关接口
	entryGroup := r.Group("/api/entry")
	entryGroup.Use(middleware.AuthMiddleware())
	{
		entryGroup.POST("/create", entry.Create)
		entryGroup.DELETE("/:id", entry.Delete)
		entryGroup.GET("/list", entry.List)
	}

	// 可见性相关接口
	visibilityGroup := r.Group("/api/visibility")
	visibilityGroup.Use(middleware.AuthMiddleware())
	{
		visibilityGroup.POST("/entry/:id", visibility.Set)
		visibilityGroup.POST("/bulk", visibility.Bulk)
	}

	// 维护接口：手工对账/清孤儿，可重复调用
	adminGroup := r.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware())
	{
		adminGroup.POST("/reconcile/:user_id", admin.ReconcileProfile)
		adminGroup.POST("/reconcile", admin.ReconcileAll)
		adminGroup.POST("/cleanup", admin.Cleanup)
	}

	return r
}
