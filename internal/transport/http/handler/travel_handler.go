package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/service"
	"carpool/internal/transport/http/ez"
	resp "carpool/internal/transport/http/response"
)

type TravelHandler struct {
	Travels *service.TravelService
}

type travelQuery struct {
	From         string `form:"from"`
	To           string `form:"to"`
	Status       string `form:"status" binding:"omitempty,oneof=PLANNED ACTIVE COMPLETED CANCELED"`
	DriverID     string `form:"driverId"`
	After        string `form:"after"` // RFC3339
	MinFreeSpots *int   `form:"minFreeSpots" binding:"omitempty,min=0"`
	WithDeleted  bool   `form:"withDeleted"`
	Offset       int    `form:"offset,default=0"`
	Limit        int    `form:"limit,default=20"`
	Sort         string `form:"sort"`
}

func (q travelQuery) filter() (domain.TravelFilter, error) {
	f := domain.TravelFilter{MinFreeSpots: q.MinFreeSpots, WithDeleted: q.WithDeleted}
	if s := strings.TrimSpace(q.From); s != "" {
		f.DeparturePoint = &s
	}
	if s := strings.TrimSpace(q.To); s != "" {
		f.ArrivalPoint = &s
	}
	if q.Status != "" {
		st := domain.TravelStatus(q.Status)
		f.Status = &st
	}
	if q.DriverID != "" {
		f.DriverID = &q.DriverID
	}
	if q.After != "" {
		at, err := time.Parse(time.RFC3339, q.After)
		if err != nil {
			return f, ez.BadRequest("after must be an RFC3339 timestamp")
		}
		f.DepartureAfter = &at
	}
	return f, nil
}

type travelOp func(ctx context.Context, id string, editor *domain.User) (*domain.Travel, error)

func (h *TravelHandler) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)

	ez.RegisterAction(e, ez.Action[travelQuery, resp.Page[domain.Travel]]{
		Method: http.MethodGet,
		Path:   "/travels",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *travelQuery) (resp.Page[domain.Travel], error) {
			f, err := in.filter()
			if err != nil {
				return resp.Page[domain.Travel]{}, err
			}
			p := domain.Page{Offset: in.Offset, Limit: in.Limit, Sort: in.Sort}.Normalize()
			list, total, err := h.Travels.Search(c.Request.Context(), f, p, ez.Me(c))
			if err != nil {
				return resp.Page[domain.Travel]{}, err
			}
			return resp.Page[domain.Travel]{List: list, Total: total, Offset: p.Offset, Limit: p.Limit}, nil
		},
	})

	ez.POST(e, "/travels", func(c *gin.Context, in service.TravelInput) (any, error) {
		return h.Travels.Create(c.Request.Context(), in, ez.Me(c))
	})
	e.GET("/travels/:id", func(c *gin.Context) (any, error) {
		return h.Travels.Get(c.Request.Context(), c.Param("id"), ez.Me(c))
	})
	ez.PUT(e, "/travels/:id", func(c *gin.Context, in service.TravelPatch) (any, error) {
		return h.Travels.Update(c.Request.Context(), c.Param("id"), in, ez.Me(c))
	})
	e.DELETE("/travels/:id", func(c *gin.Context) (any, error) {
		if err := h.Travels.Delete(c.Request.Context(), c.Param("id"), ez.Me(c)); err != nil {
			return nil, err
		}
		return gin.H{"id": c.Param("id")}, nil
	})

	for name, fn := range map[string]travelOp{
		"start":    h.Travels.Start,
		"complete": h.Travels.Complete,
		"cancel":   h.Travels.Cancel,
	} {
		ez.RegisterAction(e, ez.Action[struct{}, *domain.Travel]{
			Method: http.MethodPost,
			Path:   "/travels/:id/" + name,
			Binder: ez.BindNone,
			Auth:   true,
			Handler: func(c *gin.Context, _ *struct{}) (*domain.Travel, error) {
				return fn(c.Request.Context(), c.Param("id"), ez.Me(c))
			},
		})
	}
}
