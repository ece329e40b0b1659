// Package config loads the YAML configuration files accepted by
// cmd/midisynthd and cmd/seqd via their -c/--config-file flag. It follows
// the same "read file, yaml.Unmarshal into a plain struct" shape as
// src/deviceid.go's tocalls.yaml loader, minus that file's dynamic
// map[string]interface{} bridging — both config shapes here are static
// enough to unmarshal directly into typed structs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MidiSynth is cmd/midisynthd's configuration: which soundfont to load and
// which audio driver/device to render through, mirroring synth.Options
// field-for-field so a loaded file maps onto it without translation.
type MidiSynth struct {
	Driver     string `yaml:"driver"`
	Device     string `yaml:"device"`
	SoundFont  string `yaml:"soundfont"`
	SampleRate int    `yaml:"sample_rate"`
}

// SynthUnit names one locally-owned synth unit a seqd instance can expose
// alongside the raw downstream MIDI devices it multiplexes onto, per
// SPEC_FULL.md §6 ("-c/--config-file for soundfont/driver selection of any
// locally-owned synth unit").
type SynthUnit struct {
	Name      string `yaml:"name"`
	Driver    string `yaml:"driver"`
	Device    string `yaml:"device"`
	SoundFont string `yaml:"soundfont"`
}

// Seq is cmd/seqd's configuration: the downstream device name-prefix list
// (overridable, also settable from the command line) and any locally-owned
// synth units.
type Seq struct {
	Prefixes []string    `yaml:"prefixes"`
	Units    []SynthUnit `yaml:"units"`
}

// LoadMidiSynth reads and parses path as a MidiSynth config. A missing file
// is not an error: both servers run on their flag/default settings alone
// when no config file is present, matching the teacher's
// search-several-locations-then-carry-on behavior in deviceid_init.
func LoadMidiSynth(path string) (MidiSynth, error) {
	var cfg MidiSynth
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadSeq reads and parses path as a Seq config, with the same
// missing-file-is-fine behavior as LoadMidiSynth.
func LoadSeq(path string) (Seq, error) {
	var cfg Seq
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}
