package config

import (
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	log "github.com/sirupsen/logrus"
)

// InitLog sets the logrus level and, when logDir is set, a daily rotated file
// keeping 15 days.
func InitLog(logDir, logFilename, lev string) {
	level, err := log.ParseLevel(lev)
	if err == nil {
		log.SetLevel(level)
	} else {
		log.Errorf("Invalid log level '%s', using default", lev)
	}

	if logDir == "" {
		return
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Errorf("Failed to create log directory: %v", err)
		return
	}

	if logFilename == "" {
		path, _ := os.Executable()
		_, exec := filepath.Split(path)
		logFilename = exec + ".log"
	}
	fullLogPath := filepath.Join(logDir, logFilename)

	writer, err := rotatelogs.New(fullLogPath+".%Y%m%d",
		rotatelogs.WithLinkName(fullLogPath),
		rotatelogs.WithRotationCount(15),
		rotatelogs.WithRotationTime(24*time.Hour))
	if err != nil {
		log.Errorf("Failed to initialize log rotation: %v", err)
		return
	}
	log.SetOutput(writer)
}
