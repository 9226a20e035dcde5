package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "resume-screener"
)

type Config struct {
	JobFile     string         `mapstructure:"job-file"`
	Output      string         `mapstructure:"output"`
	ExcludeFile string         `mapstructure:"exclude-file"`
	Extract     *ExtractConfig `mapstructure:"extract"`
	Scorer      *ScorerConfig  `mapstructure:"scorer"`
}

type ExtractConfig struct {
	TempDir string `mapstructure:"temp-dir"`
}

type ScorerConfig struct {
	Provider     string            `mapstructure:"provider"`
	MaxLogLength int               `mapstructure:"max-log-length"`
	Gemini       *GeminiConfig     `mapstructure:"gemini"`
	OpenRouter   *OpenRouterConfig `mapstructure:"openrouter"`
}

type GeminiConfig struct {
	APIKeyFile          string `mapstructure:"api-key-file"`
	Model               string `mapstructure:"model"`
	MaxRetries          int    `mapstructure:"max-retries"`
	CacheJobDescription bool   `mapstructure:"cache-job-description"`
}

type OpenRouterConfig struct {
	APIKeyFile string        `mapstructure:"api-key-file"`
	Model      string        `mapstructure:"model"`
	BaseURL    string        `mapstructure:"base-url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-screener scores resumes (pdf, docx) against a job description and exports the results as csv",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("output", defaultOutput)
	viper.SetDefault("scorer.provider", providerPlaceholder)
	viper.SetDefault("scorer.max-log-length", 200)
}

func initConfig() {
	// A missing .env is fine, keys may come from the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		// An explicitly given config must be readable.
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Extract == nil {
		config.Extract = &ExtractConfig{}
	}
	if config.Scorer == nil {
		config.Scorer = &ScorerConfig{}
	}

	return config, nil
}

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s (%s)\n", app, version, runtime.Version())
	},
}
