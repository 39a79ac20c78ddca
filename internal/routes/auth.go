package routes

import (
	"github.com/labstack/echo/v4"

	"audit-desk/internal/controllers"
	"audit-desk/pkg/middleware"
)

func runAuthRouter(api *echo.Group, authCtrl *controllers.AuthController, authMW *middleware.AuthMiddleware) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authCtrl.Login)
		authGroup.POST("/refresh", authCtrl.RefreshToken)
		authGroup.POST("/forgot-password", authCtrl.ForgotPassword)
		authGroup.POST("/verify-token", authCtrl.VerifyToken)
		authGroup.POST("/reset-password", authCtrl.ResetPassword)

		authGroup.POST("/logout", authCtrl.Logout, authMW.Auth)
		authGroup.POST("/change-password", authCtrl.ChangePassword, authMW.Auth)
		authGroup.GET("/me", authCtrl.Me, authMW.Auth)
	}
}
