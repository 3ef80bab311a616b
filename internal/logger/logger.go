package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// Init инициализирует структурированный логгер в JSON формате.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// Setup настраивает логгер под окружение: JSON и info для production,
// текст и debug для разработки.
func Setup(env string) {
	if env == "production" {
		Init("info")
		return
	}
	Init("debug")
	SetTextFormatter()
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// SetOutput перенаправляет вывод, в тестах обычно в io.Discard.
func SetOutput(w io.Writer) {
	if Log != nil {
		Log.SetOutput(w)
	}
}
