package sermon

import "time"

type Translation struct {
	Status    string    `yaml:"status"`
	Text      string    `yaml:"text,omitempty"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

type Sermon struct {
	Date        string       `yaml:"date"`
	Title       string       `yaml:"title"`
	Text        string       `yaml:"text,omitempty"`
	Translation *Translation `yaml:"translation,omitempty"`
	UpdatedAt   time.Time    `yaml:"updated_at"`
}
