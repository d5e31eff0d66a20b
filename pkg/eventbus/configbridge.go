package eventbus

import "github.com/yangjinze/EventBus/pkg/eventbus/config"

// OptionsFromSettings converts config.BusSettings (typically loaded via
// config.FromFile) into the BusOptions NewBus expects, so a Bus can be
// configured from a YAML or JSON file instead of Go source.
func OptionsFromSettings(s config.BusSettings) []BusOption {
	return []BusOption{
		WithEventInheritance(s.EventInheritance),
		WithThrowSubscriberException(s.ThrowSubscriberException),
		WithSendNoSubscriberEvent(s.SendNoSubscriberEvent),
		WithSendSubscriberExceptionEvent(s.SendSubscriberExceptionEvent),
		WithStrictMethodVerification(s.StrictMethodVerification),
		WithIgnoreGeneratedIndex(s.IgnoreGeneratedIndex),
		WithNamingPrefix(s.NamingPrefix),
	}
}
