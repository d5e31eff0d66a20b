/*
Package config loads eventbus.Bus settings from a YAML or JSON file.

# Overview

config wraps a map[string]any and provides typed accessor methods that
handle missing keys and type mismatches gracefully by returning default
values, then exposes the subset of keys eventbus.Bus understands through
BusSettings.

# Basic Usage

Load a settings file and convert it into BusSettings:

	cfg, err := config.FromFile("eventbus.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	settings := cfg.ToBusSettings()
	bus := eventbus.NewBus(eventbus.OptionsFromSettings(settings)...)

A settings file looks like:

	event_inheritance: true
	send_no_subscriber_event: true
	naming_prefix: "On"

# File Loading

Load configuration from YAML or JSON files:

	cfg, err := config.FromFile("config.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	// Or load from bytes
	cfg, err = config.FromYAML(yamlBytes)
	cfg, err = config.FromJSON(jsonBytes)

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation. However, if the original map is modified
externally, behavior is undefined.
*/
package config
