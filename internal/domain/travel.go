package domain

import (
	"context"
	"time"
)

type TravelStatus string

const (
	TravelPlanned   TravelStatus = "PLANNED"
	TravelActive    TravelStatus = "ACTIVE"
	TravelCompleted TravelStatus = "COMPLETED"
	TravelCanceled  TravelStatus = "CANCELED"
)

// Open 仍可接受乘客申请
func (s TravelStatus) Open() bool { return s == TravelPlanned || s == TravelActive }

type Travel struct {
	ID             string       `gorm:"primaryKey;size:36" json:"id"`
	DriverID       string       `gorm:"index;size:36;not null" json:"driverId"`
	VehicleID      string       `gorm:"index;size:36;not null" json:"vehicleId"`
	DeparturePoint string       `gorm:"size:191;not null;index" json:"departurePoint"`
	ArrivalPoint   string       `gorm:"size:191;not null;index" json:"arrivalPoint"`
	DepartureLat   *float64     `json:"departureLat,omitempty"`
	DepartureLng   *float64     `json:"departureLng,omitempty"`
	ArrivalLat     *float64     `json:"arrivalLat,omitempty"`
	ArrivalLng     *float64     `json:"arrivalLng,omitempty"`
	DepartureTime  time.Time    `gorm:"not null;index" json:"departureTime"`
	FreeSpots      int          `gorm:"not null" json:"freeSpots"`
	Comment        string       `gorm:"size:512" json:"comment,omitempty"`
	DistanceKm     float64      `json:"distanceKm,omitempty"`
	DurationMin    float64      `json:"durationMin,omitempty"`
	Status         TravelStatus `gorm:"size:16;not null;default:PLANNED;index" json:"status"`
	IsDeleted      bool         `gorm:"not null;default:false;index" json:"isDeleted"`
	HiddenBy       string       `gorm:"size:36;index" json:"-"` // 级联取消时的用户 id
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

func (Travel) TableName() string { return "travels" }

// TravelFilter nil 字段不参与过滤
type TravelFilter struct {
	DeparturePoint *string
	ArrivalPoint   *string
	Status         *TravelStatus
	DriverID       *string
	DepartureAfter *time.Time
	MinFreeSpots   *int
	WithDeleted    bool
}

type TravelRepository interface {
	Create(ctx context.Context, t *Travel) error
	FindByID(ctx context.Context, id string) (*Travel, error)
	Search(ctx context.Context, f TravelFilter, p Page) ([]Travel, int64, error)
	Update(ctx context.Context, t *Travel) error
	// TakeSpot free_spots 减一；已满时返回 false
	TakeSpot(ctx context.Context, id string) (bool, error)
	ReleaseSpot(ctx context.Context, id string) error
	ExistsByDriverAndStatus(ctx context.Context, driverID string, status TravelStatus) (bool, error)
	// ExistsActiveAsPassenger 是否在某个 ACTIVE 行程中持有 APPROVED 申请
	ExistsActiveAsPassenger(ctx context.Context, passengerID string) (bool, error)
	CancelPlannedByDriver(ctx context.Context, driverID string) (int64, error)
	// RestoreCanceledByDriver 只恢复 CancelPlannedByDriver 隐藏的行程
	RestoreCanceledByDriver(ctx context.Context, driverID string) (int64, error)
}
