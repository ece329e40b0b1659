// Command midisynthd presents a synthesized MIDI output device as a
// character-device node, per SPEC_FULL.md §6: it tries /dev/<base>N.0 for
// N in 0..16 until one is created successfully, then services it with a
// fixed worker pool until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kpeeters/cusemidid/internal/config"
	"github.com/kpeeters/cusemidid/internal/cusert"
	"github.com/kpeeters/cusemidid/internal/logging"
	"github.com/kpeeters/cusemidid/internal/mididev"
	"github.com/kpeeters/cusemidid/internal/synth"
)

// maxDevUnit mirrors spec.md §6's MAX_DEV_UNIT: the device loop tries
// units 0..16 inclusive before giving up.
const maxDevUnit = 16

// Exit codes, matching cmd/seqd's BSD sysexits.h convention.
const (
	exSoftware = 70 // device creation failure
	exUsage    = 64 // option/config errors
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configFile = pflag.StringP("config-file", "c", "", "YAML configuration file (driver/device/soundfont).")
		baseName   = pflag.StringP("base-name", "n", "midisynth", "Device name prefix; nodes are created as /dev/<base-name>N.0.")
		threads    = pflag.IntP("threads", "t", 0, "Worker thread count. 0 selects 2x the online CPU count.")
		debug      = pflag.BoolP("debug", "d", false, "Enable debug-level logging.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "midisynthd - a software MIDI output device exposed as a character device.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: midisynthd [options]\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	logger := logging.New(os.Stderr, level)

	cfg, err := config.LoadMidiSynth(*configFile)
	if err != nil {
		logger.Error("loading configuration", "path", *configFile, "err", err)
		return exUsage
	}

	opts := synth.Options{
		Driver:     cfg.Driver,
		Device:     cfg.Device,
		SoundFont:  cfg.SoundFont,
		SampleRate: cfg.SampleRate,
	}

	dev, err := mididev.New(opts)
	if err != nil {
		logger.Error("constructing synth device", "err", err)
		return exUsage
	}

	rt, name, err := createDeviceNode(*baseName, dev)
	if err != nil {
		logger.Error("creating device node", "base_name", *baseName, "err", err)
		return exSoftware
	}
	defer rt.Destroy()

	logger.Info("device ready", "name", name)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cusert.Run(ctx, rt, dev, *threads)
	logger.Info("shut down")
	return 0
}

// createDeviceNode tries /dev/<baseName>N.0 for N in 0..maxDevUnit,
// returning the first successfully created CUSE session.
func createDeviceNode(baseName string, dev cusert.Device) (*cusert.FUSERuntime, string, error) {
	var lastErr error
	for n := 0; n <= maxDevUnit; n++ {
		name := fmt.Sprintf("%s%d.0", baseName, n)
		rt := &cusert.FUSERuntime{DeviceName: name}
		if err := rt.Start(dev); err != nil {
			lastErr = err
			continue
		}
		return rt, name, nil
	}
	return nil, "", fmt.Errorf("no free device unit 0..%d: %w", maxDevUnit, lastErr)
}
