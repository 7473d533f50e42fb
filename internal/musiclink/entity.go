package musiclink

import "time"

type Link struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// Set is the ordered list of music links for one service date.
type Set struct {
	Date      string    `yaml:"date"`
	Links     []Link    `yaml:"links"`
	UpdatedAt time.Time `yaml:"updated_at"`
}
