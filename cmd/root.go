package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobber-ai/jobber-core/internal/autopilot"
	"github.com/jobber-ai/jobber-core/internal/profile"
)

const (
	app = "jobber-core"
)

type Config struct {
	Listen    string                `mapstructure:"listen"`
	Profile   *profile.Candidate    `mapstructure:"profile"`
	Autopilot *autopilot.Thresholds `mapstructure:"autopilot"`
	Runner    *RunnerConfig         `mapstructure:"runner"`
	AI        *AIConfig             `mapstructure:"ai"`
}

type RunnerConfig struct {
	// LeaseTTL bounds how long a claimed task may stay unreported before
	// the sweep returns it to the queue. Zero disables lease expiry.
	LeaseTTL      string  `mapstructure:"lease-ttl"`
	SweepInterval string  `mapstructure:"sweep-interval"`
	ClaimRate     float64 `mapstructure:"claim-rate"`
	ClaimBurst    int     `mapstructure:"claim-burst"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobber-core runs the job-application orchestration engine",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range map[string]string{
		"autopilot.auto-apply-threshold": "JOBBER_AUTO_APPLY_THRESHOLD",
		"autopilot.approval-threshold":   "JOBBER_APPROVAL_THRESHOLD",
		"profile.remote-required":        "JOBBER_REMOTE_REQUIRED",
		"ai.gemini.api-key-file":         "GEMINI_API_KEY_FILE",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobber-core.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for the serve command. If there is no config, we
	// can skip initialization.
	if serveCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// The serve command can run entirely on defaults; only a present but
	// unparsable config file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}

	return config, nil
}
