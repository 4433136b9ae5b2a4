package config

import (
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env          string
		Timezone     string
		DashboardURL string `mapstructure:"dashboard_url"`
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	FCM struct {
		CredentialsFile string `mapstructure:"credentials_file"`
		DryRun          bool   `mapstructure:"dry_run"`
	} `mapstructure:"fcm"`

	Stripe struct {
		SecretKey       string `mapstructure:"secret_key"`
		WebhookSecret   string `mapstructure:"webhook_secret"`
		PortalReturnURL string `mapstructure:"portal_return_url"`
	} `mapstructure:"stripe"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	Jobs JobSchedules `mapstructure:"jobs"`
}

// JobSchedules carries the cron expressions, one per scheduled job.
type JobSchedules struct {
	BudgetWatch    string `mapstructure:"budget_watch"`
	BillReminders  string `mapstructure:"bill_reminders"`
	SpendingAlerts string `mapstructure:"spending_alerts"`
	TrialSweep     string `mapstructure:"trial_sweep"`
	MonthlyReset   string `mapstructure:"monthly_reset"`
}

func Load(path string) (Config, error) {
	_ = gotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	applyDefaults(&c)
	return c, nil
}

func applyDefaults(c *Config) {
	if c.App.Timezone == "" {
		c.App.Timezone = "America/New_York"
	}
	if c.App.DashboardURL == "" {
		c.App.DashboardURL = "https://seva-finance-app.web.app/dashboard"
	}
	if c.Jobs.BudgetWatch == "" {
		c.Jobs.BudgetWatch = "0 * * * *"
	}
	if c.Jobs.BillReminders == "" {
		c.Jobs.BillReminders = "0 9 * * *"
	}
	if c.Jobs.SpendingAlerts == "" {
		c.Jobs.SpendingAlerts = "0 */6 * * *"
	}
	if c.Jobs.TrialSweep == "" {
		c.Jobs.TrialSweep = "0 0 * * *"
	}
	if c.Jobs.MonthlyReset == "" {
		c.Jobs.MonthlyReset = "0 0 1 * *"
	}
}
