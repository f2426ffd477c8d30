package config

import "reflect"

// ConfigDiff describes what changed between two configs. Only the fields a
// running gateway can safely hot-swap are tracked as reloadable; anything
// else is surfaced as a non-reloadable warning.
type ConfigDiff struct {
	AuthChanged bool
	NewAuth     string

	RoomChanged bool
	NewRoom     RoomConfig

	NonReloadable []string
}

// HasChanges reports whether any reloadable field changed.
func (d *ConfigDiff) HasChanges() bool {
	return d.AuthChanged || d.RoomChanged
}

// Diff compares two configs and returns what changed.
func Diff(old, next *Config) ConfigDiff {
	var d ConfigDiff

	if old.HTTP.Token != next.HTTP.Token {
		d.AuthChanged = true
		d.NewAuth = next.HTTP.Token
	}

	if !reflect.DeepEqual(old.Room, next.Room) {
		d.RoomChanged = true
		d.NewRoom = next.Room
	}

	if old.HTTP.Port != next.HTTP.Port {
		d.NonReloadable = append(d.NonReloadable, "http.port")
	}
	if old.NATS.Port != next.NATS.Port {
		d.NonReloadable = append(d.NonReloadable, "nats.port")
	}
	if old.Store.Path != next.Store.Path {
		d.NonReloadable = append(d.NonReloadable, "store.path")
	}

	return d
}
