package pushsubscription

import "time"

// Subscription is a browser push endpoint registered for one role.
type Subscription struct {
	ID        string    `yaml:"id"`
	Role      string    `yaml:"role"`
	Endpoint  string    `yaml:"endpoint"`
	P256dhKey string    `yaml:"p256dh_key"`
	AuthKey   string    `yaml:"auth_key"`
	CreatedAt time.Time `yaml:"created_at"`
}
