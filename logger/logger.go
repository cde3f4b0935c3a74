package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New 创建统一配置的 logrus 日志器
// 日志器通过依赖注入传给各个服务,不使用全局状态
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log
}
