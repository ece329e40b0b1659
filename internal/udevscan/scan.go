// Package udevscan enumerates raw MIDI device nodes the sequencer engine
// multiplexes onto, using github.com/jochenvg/go-udev — present in the
// teacher's go.mod but unused in src/, where the equivalent inventory (see
// src/cm108.go's USB sound-card/HID enumeration) is done by cgo'ing
// directly to libudev instead. Here the pure-Go binding does the same
// class of job: walk one subsystem, filter by name, return stable results.
package udevscan

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/jochenvg/go-udev"

	"github.com/kpeeters/cusemidid/internal/direrr"
)

// MaxPrefixMatches bounds how many devices a single scan will return,
// mirroring spec.md §6's CLO_PREFIX_COUNT_MAX. A scan that would return
// more than this many entries fails outright rather than silently
// truncating — Open Question 4 decided a hard cap of exactly this value,
// not an off-by-one allowance.
const MaxPrefixMatches = 32

// Entry is one candidate downstream MIDI device found by Scan.
type Entry struct {
	Path string // e.g. "/dev/midi2"
	Name string // basename, e.g. "midi2"
}

// excludedNames are basenames Scan always skips, regardless of prefix
// match: the directory pseudo-entries and the sequencer's own status node.
var excludedNames = map[string]bool{
	".":        true,
	"..":       true,
	"midistat": true,
}

// Scan enumerates the "sound" udev subsystem, keeping devices that have a
// device node whose basename starts with one of prefixes; symlinks to
// device nodes are not enumerated (results are sorted for
// stable, reproducible ordering — open-time scan order must not depend on
// udev's internal enumeration order, which is not guaranteed stable
// between runs). An empty prefixes list matches nothing.
func Scan(prefixes []string) ([]Entry, error) {
	u := udev.Udev{}
	enum := u.NewEnumerate()

	if err := enum.AddMatchSubsystem("sound"); err != nil {
		return nil, err
	}
	if err := enum.AddMatchIsInitialized(); err != nil {
		return nil, err
	}
	if err := enum.ScanDevices(); err != nil {
		return nil, err
	}

	var found []Entry
	for _, dev := range enum.Devices() {
		node := dev.Devnode()
		if node == "" {
			continue
		}
		name := filepath.Base(node)
		if excludedNames[name] {
			continue
		}
		if !hasAnyPrefix(name, prefixes) {
			continue
		}
		found = append(found, Entry{Path: node, Name: name})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })

	if len(found) > MaxPrefixMatches {
		return nil, direrr.ErrDomain
	}

	return found, nil
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// DefaultPrefixes is the name-prefix set used when a caller configures
// none explicitly (spec.md §4.4 "open").
var DefaultPrefixes = []string{"midi", "umidi"}
