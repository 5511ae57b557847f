package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

func String(name, def string, log *logger.Logger) string {
	v, ok := lookup(name)
	if !ok {
		debugDefault(log, name, def)
		return def
	}
	if log != nil {
		log.Debug("Environment variable found, using environment", "env_var", name)
	}
	return v
}

func Int(name string, def int, log *logger.Logger) int {
	v, ok := lookup(name)
	if !ok {
		debugDefault(log, name, def)
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as int, using default", "env_var", name, "provided", v, "default", def, "error", err)
		}
		return def
	}
	return i
}

func Bool(name string, def bool, log *logger.Logger) bool {
	v, ok := lookup(name)
	if !ok {
		debugDefault(log, name, def)
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		if log != nil {
			log.Debug("Environment variable could not be parsed as bool, using default", "env_var", name, "provided", v, "default", def)
		}
		return def
	}
}

func Duration(name string, def time.Duration, log *logger.Logger) time.Duration {
	v, ok := lookup(name)
	if !ok {
		debugDefault(log, name, def)
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as duration, using default", "env_var", name, "provided", v, "default", def, "error", err)
		}
		return def
	}
	return d
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

func debugDefault(log *logger.Logger, name string, def interface{}) {
	if log != nil {
		log.Debug("Environment variable not found, using default", "env_var", name, "default", def)
	}
}
