package handler

import (
	"github.com/dafibh/teri/teri-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// Handlers groups everything RegisterRoutes mounts
type Handlers struct {
	Auth      *AuthHandler
	Dashboard *DashboardHandler
	Finance   *FinanceHandler
	Sales     *SalesHandler
	Product   *ProductHandler
	Chat      *ChatHandler
	WebSocket *WebSocketHandler
}

// RegisterRoutes sets up all API routes. authenticate guards everything under
// /api/v1; chatLimit throttles chat commands per workspace.
func RegisterRoutes(e *echo.Echo, authenticate, chatLimit echo.MiddlewareFunc, sessions *service.SessionManager, h Handlers) {
	// The event stream authenticates with a query token
	e.GET("/ws", h.WebSocket.HandleWS)

	api := e.Group("/api/v1", authenticate)

	auth := api.Group("/auth")
	auth.POST("/callback", h.Auth.Callback)
	auth.GET("/me", h.Auth.Me)
	auth.POST("/logout", h.Auth.Logout)

	session := func(fn SessionHandlerFunc) echo.HandlerFunc {
		return WithSession(sessions, fn)
	}

	dashboard := api.Group("/dashboard")
	dashboard.GET("", session(h.Dashboard.GetDashboard))
	dashboard.POST("/reconcile", session(h.Dashboard.Reconcile))
	dashboard.POST("/refresh", session(h.Dashboard.Refresh))

	finance := api.Group("/finance/:direction/transactions")
	finance.POST("", session(h.Finance.CreateTransaction))
	finance.PUT("/:id", session(h.Finance.UpdateTransaction))
	finance.DELETE("/:id", session(h.Finance.DeleteTransaction))

	leads := api.Group("/leads")
	leads.POST("", session(h.Sales.CreateLead))
	leads.DELETE("", session(h.Sales.DeleteLeadsByCompany))
	leads.PUT("/:id", session(h.Sales.UpdateLead))
	leads.DELETE("/:id", session(h.Sales.DeleteLead))

	meetings := api.Group("/meetings")
	meetings.POST("", session(h.Sales.CreateMeeting))
	meetings.PUT("/:id", session(h.Sales.UpdateMeeting))
	meetings.DELETE("/:id", session(h.Sales.DeleteMeeting))

	deals := api.Group("/deals")
	deals.POST("", session(h.Sales.CreateDeal))
	deals.PUT("/:id", session(h.Sales.UpdateDeal))
	deals.DELETE("/:id", session(h.Sales.DeleteDeal))

	projects := api.Group("/projects")
	projects.POST("", session(h.Product.CreateProject))
	projects.PATCH("/:id/status", session(h.Product.UpdateProjectStatus))
	projects.GET("/:id/tasks", session(h.Product.OpenProject))
	projects.DELETE("/:id/tasks/cache", session(h.Product.CloseProject))
	projects.POST("/:id/tasks", session(h.Product.CreateTask))
	projects.PUT("/:id/tasks/:taskId", session(h.Product.UpdateTask))
	projects.DELETE("/:id/tasks/:taskId", session(h.Product.DeleteTask))

	chat := api.Group("/chat")
	chat.POST("/commands", h.Chat.SendCommand, chatLimit)
	chat.GET("/messages", h.Chat.GetMessages)
	chat.GET("/messages/export", h.Chat.ExportMessages)
	chat.DELETE("/messages", h.Chat.ClearMessages)
}
