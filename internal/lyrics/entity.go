package lyrics

import "time"

type Translation struct {
	Status    string    `yaml:"status"`
	Text      string    `yaml:"text,omitempty"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

type Lyric struct {
	ID          string       `yaml:"id"`
	Date        string       `yaml:"date"`
	Title       string       `yaml:"title"`
	Text        string       `yaml:"text,omitempty"`
	Translation *Translation `yaml:"translation,omitempty"`
	CreatedAt   time.Time    `yaml:"created_at"`
	UpdatedAt   time.Time    `yaml:"updated_at"`
}
