package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/suvo-labs/suvo/constants/lipgloss"
	"github.com/suvo-labs/suvo/protocol"
	"github.com/suvo-labs/suvo/providers"
)

// configCacheEntry holds cached configuration with metadata
type configCacheEntry struct {
	config  *Config
	modTime time.Time
}

// Global cache for configuration files
var (
	configCache = make(map[string]*configCacheEntry)
	cacheMutex  sync.RWMutex
)

// ConfigName is the base name of the configuration file looked up in the working directory.
const ConfigName = "suvo-config"

// ProtocolConfig holds the sentinels and placeholder of the edit protocol.
type ProtocolConfig struct {
	StartSentinel string `mapstructure:"start_sentinel"`
	EndSentinel   string `mapstructure:"end_sentinel"`
	Placeholder   string `mapstructure:"placeholder"`
}

// Config represents the structure of the configuration file
type Config struct {
	Version          string                      `mapstructure:"version"`
	Theme            string                      `mapstructure:"theme"`
	LogLevel         string                      `mapstructure:"log_level"`
	IncludeOutline   bool                        `mapstructure:"include_outline"`
	SeedDir          string                      `mapstructure:"seed_dir"`
	Protocol         *ProtocolConfig             `mapstructure:"protocol"`
	AIProviderConfig *providers.AIProviderConfig `mapstructure:"ai_provider_config"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:        "0.3.0",
	Theme:          "dracula",
	LogLevel:       "warn",
	IncludeOutline: false,
	Protocol: &ProtocolConfig{
		StartSentinel: protocol.StartSentinel,
		EndSentinel:   protocol.EndSentinel,
		Placeholder:   protocol.PlaceholderContent,
	},
	AIProviderConfig: &providers.AIProviderConfig{
		Provider:    providers.ProviderGemini,
		BaseURL:     "",
		Model:       "",
		Stream:      true,
		Temperature: nil,
		ApiKey:      "",
		ChunkSize:   24,
	},
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	var config *Config

	setDefaults()

	viper.AutomaticEnv()
	bindEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	} else {
		viper.SetConfigName(ConfigName)
		viper.AddConfigPath(cwd)

		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			viper.SetConfigType("json")
			if err := viper.ReadInConfig(); err != nil {
				fmt.Println(lipgloss.Gray.Render("No configuration file found, using defaults"))
			}
		}
	}

	if rootCmd != nil {
		bindFlags(rootCmd)
	}

	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return config, nil
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("log_level", DefaultConfig.LogLevel)
	viper.SetDefault("include_outline", DefaultConfig.IncludeOutline)
	viper.SetDefault("seed_dir", DefaultConfig.SeedDir)
	viper.SetDefault("protocol.start_sentinel", DefaultConfig.Protocol.StartSentinel)
	viper.SetDefault("protocol.end_sentinel", DefaultConfig.Protocol.EndSentinel)
	viper.SetDefault("protocol.placeholder", DefaultConfig.Protocol.Placeholder)
	viper.SetDefault("ai_provider_config.provider", DefaultConfig.AIProviderConfig.Provider)
	viper.SetDefault("ai_provider_config.base_url", DefaultConfig.AIProviderConfig.BaseURL)
	viper.SetDefault("ai_provider_config.model", DefaultConfig.AIProviderConfig.Model)
	viper.SetDefault("ai_provider_config.temperature", DefaultConfig.AIProviderConfig.Temperature)
	viper.SetDefault("ai_provider_config.stream", DefaultConfig.AIProviderConfig.Stream)
	viper.SetDefault("ai_provider_config.api_key", DefaultConfig.AIProviderConfig.ApiKey)
	viper.SetDefault("ai_provider_config.replay_file", DefaultConfig.AIProviderConfig.ReplayFile)
	viper.SetDefault("ai_provider_config.chunk_size", DefaultConfig.AIProviderConfig.ChunkSize)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("theme", "THEME")
	_ = viper.BindEnv("log_level", "LOG_LEVEL")
	_ = viper.BindEnv("ai_provider_config.provider", "PROVIDER")
	_ = viper.BindEnv("ai_provider_config.base_url", "BASE_URL")
	_ = viper.BindEnv("ai_provider_config.model", "MODEL")
	_ = viper.BindEnv("ai_provider_config.temperature", "TEMPERATURE")
	_ = viper.BindEnv("ai_provider_config.api_key", "API_KEY")
	_ = viper.BindEnv("ai_provider_config.replay_file", "REPLAY_FILE")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("theme", flags.Lookup("theme"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log_level"))
	_ = viper.BindPFlag("include_outline", flags.Lookup("include_outline"))
	_ = viper.BindPFlag("seed_dir", flags.Lookup("seed_dir"))
	_ = viper.BindPFlag("ai_provider_config.provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("ai_provider_config.base_url", flags.Lookup("base_url"))
	_ = viper.BindPFlag("ai_provider_config.model", flags.Lookup("model"))
	// An unset temperature flag must not override the provider's default.
	if f := flags.Lookup("temperature"); f != nil && f.Changed {
		_ = viper.BindPFlag("ai_provider_config.temperature", f)
	}
	_ = viper.BindPFlag("ai_provider_config.api_key", flags.Lookup("api_key"))
	_ = viper.BindPFlag("ai_provider_config.replay_file", flags.Lookup("replay"))
	_ = viper.BindPFlag("ai_provider_config.chunk_size", flags.Lookup("chunk_size"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Path to a configuration file (JSON or YAML).")

	flags.String("theme", DefaultConfig.Theme, "Chroma style used to highlight file contents (e.g., 'dracula', 'monokai', 'github').")
	flags.String("log_level", DefaultConfig.LogLevel, "Diagnostic log level written to stderr ('debug', 'info', 'warn', 'error').")
	flags.Bool("include_outline", DefaultConfig.IncludeOutline, "Append an outline of functions and classes in script files to every request.")
	flags.String("seed_dir", DefaultConfig.SeedDir, "Seed the project from a local directory instead of the bootstrap files.")

	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")

	flags.String("provider", DefaultConfig.AIProviderConfig.Provider, "The fragment source: 'gemini', 'ollama' or 'replay'.")
	flags.String("base_url", DefaultConfig.AIProviderConfig.BaseURL, "Override the provider's base URL.")
	flags.String("model", DefaultConfig.AIProviderConfig.Model, "The model used for chat completions. Empty picks the provider's default.")
	flags.Float32("temperature", 0, "Adjusts the model's creativity (0-1).")
	flags.String("api_key", DefaultConfig.AIProviderConfig.ApiKey, "The API key used to authenticate with the provider.")
	flags.String("replay", DefaultConfig.AIProviderConfig.ReplayFile, "Replay a recorded response file instead of calling a model.")
	flags.Int("chunk_size", DefaultConfig.AIProviderConfig.ChunkSize, "Fragment size in bytes for the replay provider.")
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}

// findConfigFile returns the explicit config file or the first suvo-config file in cwd.
func findConfigFile(cwd string) string {
	if cfgFile != "" {
		return cfgFile
	}
	for _, ext := range []string{"yaml", "yml", "json"} {
		candidate := filepath.Join(cwd, ConfigName+"."+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// LoadConfigWithCache loads configuration with caching support
func LoadConfigWithCache(rootCmd *cobra.Command, cwd string) (*Config, error) {
	configFilePath := findConfigFile(cwd)
	if configFilePath == "" {
		return LoadConfigs(rootCmd, cwd)
	}

	fileInfo, err := os.Stat(configFilePath)
	if err != nil {
		return LoadConfigs(rootCmd, cwd)
	}

	cacheMutex.RLock()
	if cached, exists := configCache[configFilePath]; exists {
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.config, nil
		}
	}
	cacheMutex.RUnlock()

	config, err := LoadConfigs(rootCmd, cwd)
	if err != nil {
		return nil, err
	}

	cacheMutex.Lock()
	configCache[configFilePath] = &configCacheEntry{
		config:  config,
		modTime: fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return config, nil
}

// ClearConfigCache clears all cached configuration files
func ClearConfigCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	configCache = make(map[string]*configCacheEntry)
}

// InvalidateConfigCache removes a specific config file from cache
func InvalidateConfigCache(configPath string) {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	delete(configCache, configPath)
}
