package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode string `mapstructure:"mode"`
	Bot  struct {
		PollTimeout  time.Duration `mapstructure:"pollTimeout"`
		Cooldown     time.Duration `mapstructure:"cooldown"`
		ToldPlaceTTL time.Duration `mapstructure:"toldPlaceTTL"`
		VoiceEnabled bool          `mapstructure:"voiceEnabled"`
	} `mapstructure:"bot"`
	Suggest struct {
		BaseURL      string  `mapstructure:"baseURL"`
		RadiusMeters float64 `mapstructure:"radiusMeters"`
		SpanDegrees  float64 `mapstructure:"spanDegrees"`
		MaxResults   int     `mapstructure:"maxResults"`
		Language     string  `mapstructure:"language"`
	} `mapstructure:"suggest"`
	LLM struct {
		Model       string  `mapstructure:"model"`
		SpeechModel string  `mapstructure:"speechModel"`
		Voice       string  `mapstructure:"voice"`
		Temperature float64 `mapstructure:"temperature"`
	} `mapstructure:"llm"`
	Server struct {
		MetricsPort string        `mapstructure:"metricsPort"`
		Timeout     time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`

	// Credentials come from the environment only; all three are mandatory.
	Credentials Credentials `mapstructure:"-"`
}

type Credentials struct {
	TelegramToken string
	GeminiAPIKey  string
	SuggestAPIKey string
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}

	creds, err := loadCredentials()
	if err != nil {
		return Config{}, err
	}
	config.Credentials = creds

	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

// loadCredentials reads the three mandatory upstream credentials. A missing
// credential is a startup error; the process must not serve any events.
func loadCredentials() (Credentials, error) {
	creds := Credentials{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:  os.Getenv("GOOGLE_GEMINI_API_KEY"),
		SuggestAPIKey: os.Getenv("YANDEX_SUGGEST_API_KEY"),
	}
	switch {
	case creds.TelegramToken == "":
		return Credentials{}, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	case creds.GeminiAPIKey == "":
		return Credentials{}, fmt.Errorf("GOOGLE_GEMINI_API_KEY environment variable is not set")
	case creds.SuggestAPIKey == "":
		return Credentials{}, fmt.Errorf("YANDEX_SUGGEST_API_KEY environment variable is not set")
	}
	return creds, nil
}
