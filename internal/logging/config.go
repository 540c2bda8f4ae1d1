package logging

// Config controls how the root logger is constructed.
type Config struct {
	Level  string `mapstructure:"level" default:"info"`
	Format string `mapstructure:"format" default:"console"`
}
