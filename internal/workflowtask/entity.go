package workflowtask

import "time"

type Record struct {
	Status       string         `yaml:"status"`
	DocumentLink string         `yaml:"document_link,omitempty"`
	AssignedTo   string         `yaml:"assigned_to,omitempty"`
	Payload      map[string]any `yaml:"payload,omitempty"`
	UpdatedAt    time.Time      `yaml:"updated_at"`
	UpdatedBy    string         `yaml:"updated_by,omitempty"`
}

// DateTasks holds every task record of one service date, keyed by the
// spelling the record was written under.
type DateTasks struct {
	Date  string             `yaml:"date"`
	Tasks map[string]*Record `yaml:"tasks"`
}
