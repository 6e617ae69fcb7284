package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carpool/internal/domain"
	"carpool/internal/transport/http/ez"
)

const defaultCapacity = 4

// VehicleHandler 当前用户名下车辆的 CRUD，删除为软删除
type VehicleHandler struct {
	DB *gorm.DB
}

func (h *VehicleHandler) MountAPI(g *gin.RouterGroup) {
	ez.Crud(ez.CrudConfig[domain.Vehicle]{
		DB:              h.DB,
		Group:           g,
		Path:            "/vehicles",
		New:             func() *domain.Vehicle { return &domain.Vehicle{} },
		OwnerField:      "OwnerID",
		SoftDeleteField: "IsDeleted",
		OrderBy:         "created_at DESC",
		Hooks: ez.CrudHooks[domain.Vehicle]{
			BeforeCreate: func(_ *gin.Context, v *domain.Vehicle) error {
				v.Plate = normalizePlate(v.Plate)
				if v.Capacity == 0 {
					v.Capacity = defaultCapacity
				}
				return nil
			},
			BeforeUpdate: func(_ *gin.Context, v *domain.Vehicle) error {
				v.Plate = normalizePlate(v.Plate)
				return nil
			},
		},
	})
}

func normalizePlate(p string) string {
	return strings.ToUpper(strings.Join(strings.Fields(p), ""))
}
