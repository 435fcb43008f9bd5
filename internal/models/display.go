package models

// Display carries the presentation hints the board UI renders next to an alert.
type Display struct {
	Icon          string `json:"icon"`
	CategoryColor string `json:"category_color"`
	SeverityColor string `json:"severity_color"`
}

var categoryIcons = map[Category]string{
	CategorySafety:    "🚨",
	CategoryUtilities: "⚡",
	CategoryTraffic:   "🚧",
	CategoryAnimals:   "🐾",
	CategoryWeather:   "🌤️",
	CategoryCommunity: "🏘️",
	CategoryOther:     "📢",
}

var categoryColors = map[Category]string{
	CategorySafety:    "red",
	CategoryUtilities: "yellow",
	CategoryTraffic:   "orange",
	CategoryAnimals:   "green",
	CategoryWeather:   "blue",
	CategoryCommunity: "purple",
	CategoryOther:     "gray",
}

var severityColors = map[Severity]string{
	SeverityHigh:   "red",
	SeverityMedium: "yellow",
	SeverityLow:    "green",
}

// Icon falls back to the "other" icon for unknown categories.
func (c Category) Icon() string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return categoryIcons[CategoryOther]
}

func (c Category) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[CategoryOther]
}

// Color falls back to the low severity color for unknown severities.
func (s Severity) Color() string {
	if color, ok := severityColors[s]; ok {
		return color
	}
	return severityColors[SeverityLow]
}

func (a *Alert) Display() Display {
	return Display{
		Icon:          a.Category.Icon(),
		CategoryColor: a.Category.Color(),
		SeverityColor: a.Severity.Color(),
	}
}
