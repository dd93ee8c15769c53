package customer

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config customer service settings
type Config struct {
	// PublishRoutingKeys every mutation is published once per key
	PublishRoutingKeys []string     `mapstructure:"publish_routing_keys"`
	WishlistMode       WishlistMode `mapstructure:"wishlist_mode"`
}

// ApplyDefaults fills zero-valued fields
func (c *Config) ApplyDefaults() {
	if c.WishlistMode == "" {
		c.WishlistMode = WishlistToggle
	}
}

// Validate checks the customer configuration
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.WishlistMode, validation.In(WishlistToggle, WishlistStrict)),
	)
}
