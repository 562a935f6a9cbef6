package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabledParsesTruthyValues(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", "on"} {
		t.Setenv("FLAG_ADMIN_REVERT", v)
		assert.True(t, Enabled(AdminRevert), v)
	}
	t.Setenv("FLAG_ADMIN_REVERT", "nope")
	assert.False(t, Enabled(AdminRevert))
}

func TestEnvDefaults(t *testing.T) {
	env := NewEnv()

	t.Setenv("FLAG_TRANSITION_NOTIFICATIONS", "")
	assert.True(t, env.Enabled(TransitionNotifications))

	t.Setenv("FLAG_TRANSITION_NOTIFICATIONS", "false")
	assert.False(t, env.Enabled(TransitionNotifications))

	t.Setenv("FLAG_ADMIN_REVERT", "")
	assert.False(t, env.Enabled(AdminRevert))
}

func TestStatic(t *testing.T) {
	s := Static{AdminRevert: true}
	assert.True(t, s.Enabled("admin_revert"))
	assert.False(t, s.Enabled(TransitionNotifications))
}
