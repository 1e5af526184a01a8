package utils

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

var (
	InfoLogger  = logrus.New()
	ErrorLogger = logrus.New()
)

// InitLogger mengatur output, format dan level kedua logger.
// Level yang tidak dikenal jatuh ke info.
func InitLogger(level string) {
	InitLoggerTo(level, os.Stdout, os.Stderr)
}

// InitLoggerTo sama seperti InitLogger, tapi output InfoLogger dan
// ErrorLogger bisa dipilih. CLI memakai stderr untuk keduanya supaya
// stdout hanya berisi hasil perintah.
func InitLoggerTo(level string, infoOut, errOut io.Writer) {
	InfoLogger = logrus.New()
	ErrorLogger = logrus.New()

	InfoLogger.SetOutput(infoOut)
	InfoLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	ErrorLogger.SetOutput(errOut)
	ErrorLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	InfoLogger.SetLevel(lvl)
	ErrorLogger.SetLevel(logrus.ErrorLevel)
}

// NewGormLogger routes GORM's SQL log through InfoLogger. Slow queries and
// errors are always reported; every statement is traced only when traceSQL is set.
func NewGormLogger(traceSQL bool) gormlogger.Interface {
	level := gormlogger.Warn
	if traceSQL {
		level = gormlogger.Info
	}

	return gormlogger.New(InfoLogger, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
