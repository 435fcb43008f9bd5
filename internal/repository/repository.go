package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mr1hm/go-community-alerts/internal/models"
)

var ErrNotFound = errors.New("alert not found")

type Filter struct {
	Limit    int
	Offset   int
	Since    *time.Time
	Category *models.Category
	Severity *models.Severity
	Status   *models.Status
}

type AlertRepository interface {
	AddAlert(ctx context.Context, a *models.Alert) error
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	Exists(ctx context.Context, id string) (bool, error)
	ListAlerts(ctx context.Context, opts Filter) ([]models.Alert, error)
	Count(ctx context.Context) (int, error)
}
