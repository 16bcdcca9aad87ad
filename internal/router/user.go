package router

import (
	"github.com/Payphone-Digital/account-service/internal/constants"
	"github.com/Payphone-Digital/account-service/internal/dto"
	"github.com/Payphone-Digital/account-service/internal/middleware"
	"github.com/gin-gonic/gin"
)

func (r *Router) userRoutes(rg *gin.RouterGroup) {
	// Public routes (no authentication required)
	rg.GET("/fetchAllUsers", r.userHandler.FetchAllUsers)
	rg.GET("/searchUsers", r.userHandler.SearchUsers)
	rg.POST("/addUser", r.validMw.ValidateRequestBody(func() interface{} { return &dto.CreateUserRequest{} }), r.userHandler.AddUser)
	rg.POST("/massAddUsers", r.userHandler.MassAddUsers)

	// A caller may only read or change their own record
	user := rg.Group("/user/:id")
	user.Use(
		middleware.NumericParam("id"),
		r.authMw.RequireAuth(),
		middleware.RequireSelf("id", constants.RoleUser),
	)
	{
		user.GET("", r.userHandler.GetUser)
		user.PUT("", r.userHandler.UpdateUser)
		user.DELETE("", r.userHandler.DeleteUser)
	}
}
