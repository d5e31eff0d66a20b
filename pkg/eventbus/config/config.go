package config

// Config wraps a map[string]any holding bus settings loaded from a YAML or
// JSON file, with typed accessor methods that handle missing keys and type
// mismatches gracefully by returning default values.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map.
// If data is nil, an empty Config is returned.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// String returns the string value for key, or defaultVal if missing or not a string.
func (c Config) String(key, defaultVal string) string {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	if s, ok := v.(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or not a bool.
func (c Config) Bool(key string, defaultVal bool) bool {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return defaultVal
}

// BusSettings is the subset of Config keys eventbus.Bus understands: one
// field per eventbus.BusOption that takes a bool or a string, using the same key names a YAML or JSON
// settings file would use.
type BusSettings struct {
	EventInheritance             bool
	ThrowSubscriberException     bool
	SendNoSubscriberEvent        bool
	SendSubscriberExceptionEvent bool
	StrictMethodVerification     bool
	IgnoreGeneratedIndex         bool
	NamingPrefix                 string
}

// ToBusSettings extracts bus configuration from c, defaulting any missing
// or mistyped key the same way String and Bool do: silently, to a value
// matching eventbus.NewBus's own defaults.
func (c Config) ToBusSettings() BusSettings {
	return BusSettings{
		EventInheritance:             c.Bool("event_inheritance", true),
		ThrowSubscriberException:     c.Bool("throw_subscriber_exception", false),
		SendNoSubscriberEvent:        c.Bool("send_no_subscriber_event", true),
		SendSubscriberExceptionEvent: c.Bool("send_subscriber_exception_event", true),
		StrictMethodVerification:     c.Bool("strict_method_verification", false),
		IgnoreGeneratedIndex:         c.Bool("ignore_generated_index", false),
		NamingPrefix:                 c.String("naming_prefix", "On"),
	}
}
