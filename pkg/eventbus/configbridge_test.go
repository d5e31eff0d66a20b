package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yangjinze/EventBus/pkg/eventbus/config"
)

func TestOptionsFromSettingsAppliesEveryField(t *testing.T) {
	settings := config.BusSettings{
		EventInheritance:             false,
		ThrowSubscriberException:     true,
		SendNoSubscriberEvent:        false,
		SendSubscriberExceptionEvent: false,
		StrictMethodVerification:     true,
		IgnoreGeneratedIndex:         true,
		NamingPrefix:                 "Handle",
	}

	bus := NewBus(OptionsFromSettings(settings)...)

	assert.False(t, bus.config.eventInheritance)
	assert.True(t, bus.config.throwSubscriberException)
	assert.False(t, bus.config.sendNoSubscriberEvent)
	assert.False(t, bus.config.sendSubscriberExceptionEvent)
	assert.True(t, bus.config.strictMethodVerification)
	assert.True(t, bus.config.ignoreGeneratedIndex)
	assert.Equal(t, "Handle", bus.config.namingPrefix)
}
