package handler

import (
	"github.com/gin-gonic/gin"

	"carpool/internal/service"
	"carpool/internal/transport/http/ez"
)

type FeedbackHandler struct {
	Feedbacks *service.FeedbackService
}

func (h *FeedbackHandler) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)
	ez.POST(e, "/travels/:id/feedbacks", func(c *gin.Context, in service.FeedbackInput) (any, error) {
		return h.Feedbacks.Create(c.Request.Context(), c.Param("id"), ez.Me(c), in)
	})
	ez.PUT(e, "/feedbacks/:id", func(c *gin.Context, in service.FeedbackPatch) (any, error) {
		return h.Feedbacks.Update(c.Request.Context(), c.Param("id"), in, ez.Me(c))
	})
	e.DELETE("/feedbacks/:id", func(c *gin.Context) (any, error) {
		if err := h.Feedbacks.Delete(c.Request.Context(), c.Param("id"), ez.Me(c)); err != nil {
			return nil, err
		}
		return gin.H{"id": c.Param("id")}, nil
	})
	e.GET("/users/:id/feedbacks", func(c *gin.Context) (any, error) {
		return h.Feedbacks.ListReceived(c.Request.Context(), c.Param("id"))
	})
}
