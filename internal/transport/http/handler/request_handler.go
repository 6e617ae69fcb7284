package handler

import (
	"github.com/gin-gonic/gin"

	"carpool/internal/service"
	"carpool/internal/transport/http/ez"
)

// RequestHandler 搭车申请
type RequestHandler struct {
	Requests *service.RequestService
}

func (h *RequestHandler) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)
	e.GET("/requests/mine", func(c *gin.Context) (any, error) {
		return h.Requests.ListMine(c.Request.Context(), ez.Me(c))
	})
	e.POSTNoBody("/travels/:id/requests", func(c *gin.Context) (any, error) {
		return h.Requests.Create(c.Request.Context(), c.Param("id"), ez.Me(c))
	})
	e.GET("/travels/:id/requests", func(c *gin.Context) (any, error) {
		return h.Requests.ListByTravel(c.Request.Context(), c.Param("id"), ez.Me(c))
	})
	e.POSTNoBody("/requests/:id/approve", func(c *gin.Context) (any, error) {
		return h.Requests.Approve(c.Request.Context(), c.Param("id"), ez.Me(c))
	})
	e.POSTNoBody("/requests/:id/reject", func(c *gin.Context) (any, error) {
		return h.Requests.Reject(c.Request.Context(), c.Param("id"), ez.Me(c))
	})
	e.DELETE("/requests/:id", func(c *gin.Context) (any, error) {
		return h.Requests.Withdraw(c.Request.Context(), c.Param("id"), ez.Me(c))
	})
}
