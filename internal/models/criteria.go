package models

// All disables filtering on a dimension.
const All = "all"

// Criteria narrows the visible alert list. An empty field behaves like All.
type Criteria struct {
	Category string `json:"category"`
	Severity string `json:"severity"`
	Status   string `json:"status"`
}

// ClearedCriteria returns criteria that match every alert.
func ClearedCriteria() Criteria {
	return Criteria{Category: All, Severity: All, Status: All}
}

func (c Criteria) IsCleared() bool {
	return unfiltered(c.Category) && unfiltered(c.Severity) && unfiltered(c.Status)
}

// Normalize replaces empty dimensions with All.
func (c Criteria) Normalize() Criteria {
	if c.Category == "" {
		c.Category = All
	}
	if c.Severity == "" {
		c.Severity = All
	}
	if c.Status == "" {
		c.Status = All
	}
	return c
}

// Invalid returns the names of dimensions holding a value that is neither
// All nor a member of the dimension's enumeration.
func (c Criteria) Invalid() []string {
	var fields []string
	if !unfiltered(c.Category) && !Category(c.Category).Valid() {
		fields = append(fields, "category")
	}
	if !unfiltered(c.Severity) && !Severity(c.Severity).Valid() {
		fields = append(fields, "severity")
	}
	if !unfiltered(c.Status) && !Status(c.Status).Valid() {
		fields = append(fields, "status")
	}
	return fields
}

func unfiltered(v string) bool {
	return v == "" || v == All
}
