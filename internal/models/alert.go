package models

import (
	"fmt"
	"time"
)

type Category string

const (
	CategorySafety    Category = "safety"
	CategoryUtilities Category = "utilities"
	CategoryTraffic   Category = "traffic"
	CategoryAnimals   Category = "animals"
	CategoryWeather   Category = "weather"
	CategoryCommunity Category = "community"
	CategoryOther     Category = "other"
)

var Categories = []Category{
	CategorySafety,
	CategoryUtilities,
	CategoryTraffic,
	CategoryAnimals,
	CategoryWeather,
	CategoryCommunity,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

func (s Severity) Valid() bool {
	for _, v := range Severities {
		if s == v {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusActive      Status = "active"
	StatusResolved    Status = "resolved"
	StatusUnderReview Status = "under_review"
)

var Statuses = []Status{StatusActive, StatusResolved, StatusUnderReview}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

type Coordinates struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Label renders coordinates the way the submission form fills the location field.
func (c Coordinates) Label() string {
	return fmt.Sprintf("Near %.4f, %.4f", c.Latitude, c.Longitude)
}

type Alert struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    Category     `json:"category"`
	Location    string       `json:"location"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
	Status      Status       `json:"status"`
	Severity    Severity     `json:"severity"`
	Upvotes     int          `json:"upvotes"` // never incremented, no endpoint exposes it
}

// Draft is an unvalidated submission. ID, timestamp, status and upvotes are
// assigned by the store.
type Draft struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    Category     `json:"category"`
	Location    string       `json:"location"`
	Severity    Severity     `json:"severity"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}
