package seed

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mr1hm/go-community-alerts/internal/models"
)

//go:embed alerts.yaml
var defaultAlerts []byte

type file struct {
	Alerts []entry `yaml:"alerts"`
}

type entry struct {
	ID          string              `yaml:"id"`
	Title       string              `yaml:"title"`
	Description string              `yaml:"description"`
	Category    models.Category     `yaml:"category"`
	Location    string              `yaml:"location"`
	Age         time.Duration       `yaml:"age"`
	Status      models.Status       `yaml:"status"`
	Severity    models.Severity     `yaml:"severity"`
	Upvotes     int                 `yaml:"upvotes"`
	Coordinates *models.Coordinates `yaml:"coordinates"`
}

// Default returns the built-in mock alerts timestamped relative to now.
func Default(now time.Time) ([]models.Alert, error) {
	return Load(defaultAlerts, now)
}

func LoadFile(path string, now time.Time) ([]models.Alert, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}
	return Load(data, now)
}

func Load(data []byte, now time.Time) ([]models.Alert, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error parsing seed alerts: %w", err)
	}

	alerts := make([]models.Alert, 0, len(f.Alerts))
	for i, e := range f.Alerts {
		if e.ID == "" {
			return nil, fmt.Errorf("seed alert %d: id is required", i)
		}
		if !e.Category.Valid() {
			return nil, fmt.Errorf("seed alert %s: invalid category %q", e.ID, e.Category)
		}
		if !e.Severity.Valid() {
			return nil, fmt.Errorf("seed alert %s: invalid severity %q", e.ID, e.Severity)
		}
		if e.Status == "" {
			e.Status = models.StatusActive
		}
		if !e.Status.Valid() {
			return nil, fmt.Errorf("seed alert %s: invalid status %q", e.ID, e.Status)
		}
		if e.Upvotes < 0 {
			return nil, fmt.Errorf("seed alert %s: upvotes must not be negative", e.ID)
		}

		alerts = append(alerts, models.Alert{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			Category:    e.Category,
			Location:    e.Location,
			Coordinates: e.Coordinates,
			Timestamp:   now.Add(-e.Age),
			Status:      e.Status,
			Severity:    e.Severity,
			Upvotes:     e.Upvotes,
		})
	}

	return alerts, nil
}
