package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// FotMob配置
	FotMobBaseURL string
	FetchDelay    time.Duration

	// 数据库配置
	DatabaseURL string

	// 服务器配置
	Port string

	// 联赛配置
	LeagueSize   int // 名义联赛规模,用于排名归一化
	FallbackRank int // 实体缺席排行榜时使用的兜底名次

	// 更新调度配置
	UpdateInterval time.Duration

	// 其他配置
	Environment string
	LogLevel    string
}

func Load() *Config {
	// 本地开发时从 .env 加载,文件不存在则忽略
	_ = godotenv.Load()

	leagueSize := getEnvInt("LEAGUE_SIZE", 30)
	fallbackRank := getEnvInt("FALLBACK_RANK", 0)
	if fallbackRank <= 0 {
		fallbackRank = leagueSize/2 + 1
	}

	return &Config{
		// FotMob配置
		FotMobBaseURL: getEnv("FOTMOB_BASE_URL", "https://www.fotmob.com"),
		FetchDelay:    getEnvDuration("FETCH_DELAY", 1500*time.Millisecond),

		// 数据库配置
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/arg_stats?sslmode=disable"),

		// 服务器配置
		Port: getEnv("PORT", "8080"),

		// 联赛配置
		LeagueSize:   leagueSize,
		FallbackRank: fallbackRank,

		// 更新调度配置
		UpdateInterval: getEnvDuration("UPDATE_INTERVAL", 1*time.Hour),

		// 其他配置
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(value)
	if err != nil || result == 0 {
		return defaultValue
	}
	return result
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return result
}
