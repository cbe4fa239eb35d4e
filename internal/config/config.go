package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath   string `envconfig:"DB_PATH" default:"./data/scheduler.db"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // healthz
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	Timezone string `envconfig:"TIMEZONE" default:"Asia/Seoul"`

	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID" required:"true"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET" required:"true"`

	ScanWindowWeeks int    `envconfig:"SCAN_WINDOW_WEEKS" default:"4"`
	ScanCron        string `envconfig:"SCAN_CRON" default:"30 7 * * MON"`
	DailyCron       string `envconfig:"DAILY_CRON" default:"0 7 * * *"`
	ReconcileCron   string `envconfig:"RECONCILE_CRON" default:"0 * * * *"`

	QueueWorkers int `envconfig:"QUEUE_WORKERS" default:"4"`
	QueueBuffer  int `envconfig:"QUEUE_BUFFER" default:"64"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
