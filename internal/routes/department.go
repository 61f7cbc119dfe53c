package routes

import (
	"github.com/labstack/echo/v4"

	"consult-system/internal/controllers"
)

func registerDepartmentRoutes(g *echo.Group, c *controllers.DepartmentController) {
	g.GET("/departments", c.GetDepartments)
	g.PATCH("/departments/:id/delegation", c.UpdateDelegation)
}
