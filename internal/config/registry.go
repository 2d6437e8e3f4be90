package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/al002/zbencode/pkg/bencode"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "ZBENCODE"

type Registry struct {
	v        *viper.Viper
	onChange func(name string)
}

func NewRegistry() *Registry {
	v := viper.New()

	v.SetDefault("decode.max_depth", bencode.DefaultMaxDepth)
	v.SetDefault("decode.max_string_length", bencode.DefaultDecodeMaxStrLen)
	v.SetDefault("decode.allow_unsorted_keys", false)
	v.SetDefault("encode.max_string_length", bencode.DefaultDecodeMaxStrLen)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Registry{v: v}
}

// OnChange registers a callback run when a watched config file changes.
func (r *Registry) OnChange(fn func(name string)) {
	r.onChange = fn
}

// LoadConfig reads cfgFile, or $HOME/.zbencode/config.yaml when cfgFile is
// empty. A missing default file is not an error; defaults apply.
func (r *Registry) LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		r.v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}

		r.v.AddConfigPath(filepath.Join(home, ".zbencode"))
		r.v.SetConfigName("config")
		r.v.SetConfigType("yaml")
	}

	if err := r.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		r.v.OnConfigChange(func(e fsnotify.Event) {
			if r.onChange != nil {
				r.onChange(e.Name)
			}
		})
		r.v.WatchConfig()
	}

	var cfg Config

	if err := r.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("error on validating config: %w", err)
	}

	return &cfg, nil
}

func (r *Registry) ConfigFile() string {
	return r.v.ConfigFileUsed()
}
