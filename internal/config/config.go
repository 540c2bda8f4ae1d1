package config

import (
	"reflect"
	"strings"

	"romorganizer/internal/history"
	"romorganizer/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Directories names every filesystem location the reconciliation engine
// touches. All paths are local; romorganizer never opens a network
// connection.
type Directories struct {
	Dats    string `mapstructure:"dats" default:"./dats"`
	Romset  string `mapstructure:"romset" default:"./romset"`
	Backup  string `mapstructure:"backup" default:"./backup"`
	Scratch string `mapstructure:"scratch" default:"./scratch"`
	Headers string `mapstructure:"headers" default:"./headers"`
	Staging string `mapstructure:"staging" default:"./staging"`
}

// Archive controls how romorganizer writes archives it repacks.
type Archive struct {
	// CompressionLevel is passed straight to the deflate writer used for
	// repacked zips. 0 disables compression, 9 is strongest.
	CompressionLevel int `mapstructure:"compression_level" default:"6"`
}

// Config holds all configuration for the application, divided into
// partial configurations for better modularity.
type Config struct {
	Directories Directories    `mapstructure:"directories"`
	Archive     Archive        `mapstructure:"archive"`
	Log         logging.Config `mapstructure:"log"`
	History     history.Config `mapstructure:"history"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. LOG_LEVEL -> log.level)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default
// values in Viper based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		v.SetDefault(key, defaultValue)
	}
}
