package routes

import (
	"github.com/labstack/echo/v4"

	"consult-system/internal/controllers"
)

func registerConsultRoutes(g *echo.Group, c *controllers.ConsultController) {
	g.POST("/consults", c.CreateConsult)
	g.GET("/consults", c.GetConsults)
	g.GET("/consults/:id", c.FindConsult)
	g.GET("/consults/:id/audit", c.GetAuditTrail)
	g.GET("/consults/:id/notes", c.GetNotes)

	// Переходы рабочего процесса
	g.POST("/consults/:id/acknowledge-and-assign", c.AcknowledgeAndAssign)
	g.POST("/consults/:id/reassign", c.Reassign)
	g.POST("/consults/:id/request-more-info", c.RequestMoreInfo)
	g.POST("/consults/:id/resume", c.Resume)
	g.POST("/consults/:id/notes", c.AddNote)
	g.POST("/consults/:id/complete", c.Complete)
	g.POST("/consults/:id/close", c.Close)
	g.POST("/consults/:id/follow-up", c.StartFollowUp)
}
