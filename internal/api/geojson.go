package api

import (
	"github.com/mr1hm/go-community-alerts/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON emits a point per alert; alerts without coordinates are left off the map.
func toGeoJSON(alerts []models.Alert) FeatureCollection {
	features := make([]Feature, 0, len(alerts))

	for _, a := range alerts {
		if a.Coordinates == nil {
			continue
		}
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{a.Coordinates.Longitude, a.Coordinates.Latitude},
			},
			Properties: map[string]any{
				"id":             a.ID,
				"title":          a.Title,
				"category":       a.Category,
				"severity":       a.Severity,
				"status":         a.Status,
				"location":       a.Location,
				"icon":           a.Category.Icon(),
				"severity_color": a.Severity.Color(),
				"timestamp":      a.Timestamp,
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
