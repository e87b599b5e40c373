// Package environment reads session-tunable settings from the shell
// interpreter's variables, falling back to the process environment.
package environment

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"mvdan.cc/sh/v3/interp"
)

const (
	defaultSubstTimeout  = 500 * time.Millisecond
	defaultPromptText    = "wren$ "
	defaultContinuation  = "> "
	defaultPromptVarName = "WREN_PROMPT"
)

// Get returns the named shell variable, or the process environment value
// when the interpreter has no binding for it.
func Get(runner *interp.Runner, name string) string {
	if runner != nil {
		if v, ok := runner.Vars[name]; ok && v.IsSet() {
			return v.String()
		}
	}
	return os.Getenv(name)
}

// GetPwd returns the interpreter's working directory.
func GetPwd(runner *interp.Runner) string {
	if runner != nil && runner.Dir != "" {
		return runner.Dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

// GetPromptTemplate returns the primary prompt template. The template is
// expanded by the prompt engine, so it may contain parameter and command
// substitutions.
func GetPromptTemplate(runner *interp.Runner) string {
	if tmpl := Get(runner, defaultPromptVarName); tmpl != "" {
		return tmpl
	}
	return defaultPromptText
}

// GetContinuationTemplate returns the continuation prompt template.
func GetContinuationTemplate(runner *interp.Runner) string {
	if tmpl := Get(runner, "WREN_PROMPT2"); tmpl != "" {
		return tmpl
	}
	return defaultContinuation
}

// GetHistorySize returns how many history entries the session keeps in
// memory. WREN_HISTSIZE overrides the configured fallback.
func GetHistorySize(runner *interp.Runner, fallback int, logger *zap.Logger) int {
	raw := Get(runner, "WREN_HISTSIZE")
	if raw == "" {
		return fallback
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size < 0 {
		logger.Warn("invalid WREN_HISTSIZE, using configured size", zap.String("value", raw))
		return fallback
	}
	return size
}

// HistoryDedupDisabled reports whether consecutive-duplicate collapsing
// was turned off for this session.
func HistoryDedupDisabled(runner *interp.Runner) bool {
	switch Get(runner, "WREN_HISTDEDUP") {
	case "off", "0", "false":
		return true
	default:
		return false
	}
}

// GetSubstTimeout bounds prompt command substitution so a slow command
// cannot stall the read loop.
func GetSubstTimeout(runner *interp.Runner, logger *zap.Logger) time.Duration {
	raw := Get(runner, "WREN_PROMPT_TIMEOUT_MS")
	if raw == "" {
		return defaultSubstTimeout
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		logger.Warn("invalid WREN_PROMPT_TIMEOUT_MS, using default", zap.String("value", raw))
		return defaultSubstTimeout
	}
	return time.Duration(ms) * time.Millisecond
}

// GetLogLevel parses WREN_LOG_LEVEL into a zap level, defaulting to warn.
func GetLogLevel(runner *interp.Runner) zap.AtomicLevel {
	raw := Get(runner, "WREN_LOG_LEVEL")
	if raw == "" {
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	level, err := zapcore.ParseLevel(raw)
	if err != nil {
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return zap.NewAtomicLevelAt(level)
}
