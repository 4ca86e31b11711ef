package main

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "resumematch"
)

type Config struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
	Qdrant *QdrantConfig `mapstructure:"qdrant"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	Model      string `mapstructure:"model"`
	EmbedModel string `mapstructure:"embed-model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type QdrantConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	APIKey     string `mapstructure:"api-key"`
	Collection string `mapstructure:"collection"`
	TopK       int    `mapstructure:"top-k"`
}

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "resumematch extracts resume PDFs and scores them against a job description",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range map[string]string{
		"gemini.api-key":     "GEMINI_API_KEY",
		"gemini.model":       "GEMINI_MODEL",
		"gemini.embed-model": "GEMINI_EMBED_MODEL",
		"qdrant.enabled":     "QDRANT_ENABLED",
		"qdrant.url":         "QDRANT_URL",
		"qdrant.api-key":     "QDRANT_API_KEY",
		"qdrant.collection":  "QDRANT_COLLECTION",
		"qdrant.top-k":       "QDRANT_TOP_K",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("gemini.model", "gemini-2.5-flash")
	viper.SetDefault("gemini.embed-model", "text-embedding-004")
	viper.SetDefault("gemini.max-retries", 3)
	viper.SetDefault("qdrant.url", "http://localhost:6334")
	viper.SetDefault("qdrant.collection", "ats_guidelines")
	viper.SetDefault("qdrant.top-k", 3)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "an optional config file (yaml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Environment variables are enough; a config file is read only when asked for.
	if cfgFile == "" {
		return
	}

	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}

	return config, nil
}
