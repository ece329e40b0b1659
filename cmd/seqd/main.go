// Command seqd presents a single OSS /dev/sequencer-compatible character
// device that multiplexes onto downstream raw-MIDI devices (and, per
// configuration, in-process synth units) and runs the tempo/tick timer,
// per spec.md §6's CLI section.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kpeeters/cusemidid/internal/config"
	"github.com/kpeeters/cusemidid/internal/cusert"
	"github.com/kpeeters/cusemidid/internal/logging"
	"github.com/kpeeters/cusemidid/internal/seq"
	"github.com/kpeeters/cusemidid/internal/synth"
)

// Exit codes from spec.md §6: 0 normal, EX_OSERR on CUSE connect failure,
// EX_SOFTWARE on device creation failure, non-zero on option errors. The
// values match BSD sysexits.h, which the legacy OSS tooling this device
// emulates also follows.
const (
	exOSErr    = 71 // CUSE connect failure
	exSoftware = 70 // device creation failure
	exUsage    = 64 // option/config errors
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		help       = pflag.BoolP("help", "?", false, "Display help text.")
		daemonize  = pflag.BoolP("daemonize", "d", false, "Run in the background (not implemented; accepted for CLI compatibility).")
		pidFile    = pflag.StringP("pid-file", "p", "", "Write the process id to this file.")
		threads    = pflag.IntP("threads", "t", 0, "Worker thread count. 0 selects 2x the online CPU count.")
		vdev       = pflag.StringP("vdev", "V", "sequencer", "Device node name.")
		prefixes   = pflag.StringArrayP("prefix", "P", []string{"midi", "umidi"}, "Downstream device name prefix (repeatable).")
		configFile = pflag.StringP("config-file", "c", "", "YAML configuration file (downstream prefixes, local synth units).")
		logLevel   = pflag.StringP("log-level", "l", "info", "Log level: debug, info, warn, error.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "seqd - an OSS /dev/sequencer-compatible character device.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: seqd [options]\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		return 0
	}

	logger := logging.New(os.Stderr, *logLevel)

	if *daemonize {
		logger.Warn("daemonize requested but not implemented; continuing in the foreground")
	}
	if *pidFile != "" {
		if err := os.WriteFile(*pidFile, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
			logger.Error("writing pid file", "path", *pidFile, "err", err)
			return exUsage
		}
		defer os.Remove(*pidFile)
	}

	cfg, err := config.LoadSeq(*configFile)
	if err != nil {
		logger.Error("loading configuration", "path", *configFile, "err", err)
		return exUsage
	}

	finalPrefixes := *prefixes
	if len(cfg.Prefixes) > 0 {
		finalPrefixes = cfg.Prefixes
	}

	var localUnits []seq.LocalSynthUnit
	for _, u := range cfg.Units {
		localUnits = append(localUnits, seq.LocalSynthUnit{
			Name: u.Name,
			Options: synth.Options{
				Driver:    u.Driver,
				Device:    u.Device,
				SoundFont: u.SoundFont,
			},
		})
	}

	dev := seq.New(finalPrefixes, localUnits)

	rt := &cusert.FUSERuntime{DeviceName: *vdev}
	if err := rt.Start(dev); err != nil {
		logger.Error("connecting CUSE device", "name", *vdev, "err", err)
		return exOSErr
	}
	defer rt.Destroy()

	logger.Info("device ready", "name", *vdev, "prefixes", finalPrefixes)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cusert.Run(ctx, rt, dev, *threads)
	logger.Info("shut down")
	return 0
}

