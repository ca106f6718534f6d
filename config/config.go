package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		_ = godotenv.Load()

		viper.AutomaticEnv()

		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("lookup_base_url", "LOOKUP_BASE_URL")
		viper.BindEnv("lookup_timeout_seconds", "LOOKUP_TIMEOUT_SECONDS")
		viper.BindEnv("check_interval_minutes", "CHECK_INTERVAL_MINUTES")
		viper.BindEnv("group_pacing_ms", "GROUP_PACING_MS")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")

		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("db_path", "/app/data/bot.db")
		viper.SetDefault("lookup_base_url", "https://api.dexscreener.com")
		viper.SetDefault("lookup_timeout_seconds", 10)
		viper.SetDefault("check_interval_minutes", 5)
		viper.SetDefault("group_pacing_ms", 500)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}
