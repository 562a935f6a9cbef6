package featureflags

import (
	"os"
	"strings"
)

const (
	// TransitionNotifications emits inbox notifications on rent request transitions
	TransitionNotifications = "TRANSITION_NOTIFICATIONS"
	// AdminRevert allows an admin to move a rejected or cancelled request back to pending
	AdminRevert = "ADMIN_REVERT"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	return EnabledDefault(name, false)
}

// EnabledDefault is Enabled with a fallback used when the variable is unset or unrecognised
func EnabledDefault(name string, def bool) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// Source answers whether a named flag is on
type Source interface {
	Enabled(name string) bool
}

// Env reads flags from the environment on every call
type Env struct {
	Defaults map[string]bool
}

// NewEnv returns the process flag source with the service defaults
func NewEnv() Env {
	return Env{Defaults: map[string]bool{TransitionNotifications: true}}
}

// Enabled reads FLAG_<NAME>, falling back to the configured default
func (e Env) Enabled(name string) bool {
	return EnabledDefault(name, e.Defaults[strings.ToUpper(name)])
}

// Static is a fixed flag set, handy in tests
type Static map[string]bool

func (s Static) Enabled(name string) bool {
	return s[strings.ToUpper(name)]
}
