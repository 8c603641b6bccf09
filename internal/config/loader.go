package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".jsbundle"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for jsbundle settings.
const envPrefix = "JSBUNDLE"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	return &Config{
		Resolve: ResolveConfig{
			Extensions:    append([]string(nil), DefaultResolveExtensions...),
			IndexFile:     DefaultResolveIndexFile,
			MaxModuleSize: DefaultResolveMaxModuleSize,
		},
		Output: OutputConfig{
			Filename: DefaultOutputFilename,
			Compress: DefaultOutputCompress,
			Metafile: DefaultOutputMetafile,
			Verify:   DefaultOutputVerify,
		},
		Linker:  LinkerConfig{Order: DefaultLinkerOrder},
		Logging: LoggingConfig{Level: DefaultLoggingLevel, Format: DefaultLoggingFormat},
	}
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("resolve.extensions", DefaultResolveExtensions)
	viperCfg.SetDefault("resolve.index_file", DefaultResolveIndexFile)
	viperCfg.SetDefault("resolve.max_module_size", DefaultResolveMaxModuleSize)

	viperCfg.SetDefault("output.filename", DefaultOutputFilename)
	viperCfg.SetDefault("output.compress", DefaultOutputCompress)
	viperCfg.SetDefault("output.metafile", DefaultOutputMetafile)
	viperCfg.SetDefault("output.verify", DefaultOutputVerify)

	viperCfg.SetDefault("linker.order", DefaultLinkerOrder)

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.format", DefaultLoggingFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultTelemetryOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultTelemetryOTLPInsecure)
	viperCfg.SetDefault("telemetry.otlp_headers", DefaultTelemetryOTLPHeaders)
	viperCfg.SetDefault("telemetry.trace_verbose", DefaultTelemetryTraceVerbose)
	viperCfg.SetDefault("telemetry.metrics_textfile", DefaultTelemetryMetricsTextfile)
}
