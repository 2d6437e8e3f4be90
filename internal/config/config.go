package config

import "github.com/al002/zbencode/pkg/bencode"

type LogConfig struct {
	Dir    string `mapstructure:"dir"`
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"` // "text" or "json"
}

type DecodeConfig struct {
	MaxDepth          int   `mapstructure:"max_depth" validate:"min=1,max=100000"`
	MaxStringLength   int64 `mapstructure:"max_string_length" validate:"min=1"`
	AllowUnsortedKeys bool  `mapstructure:"allow_unsorted_keys"`
}

type EncodeConfig struct {
	MaxStringLength int64 `mapstructure:"max_string_length" validate:"min=1"`
}

type Config struct {
	Decode DecodeConfig `mapstructure:"decode"`
	Encode EncodeConfig `mapstructure:"encode"`
	Log    LogConfig    `mapstructure:"log"`
}

// NewDecoder returns a decoder over data with the configured limits.
func (c *DecodeConfig) NewDecoder(data []byte) *bencode.Decoder {
	d := bencode.NewDecoder(data)
	d.MaxDepth = c.MaxDepth
	d.MaxStrLen = c.MaxStringLength
	d.AllowUnsortedKeys = c.AllowUnsortedKeys
	return d
}
