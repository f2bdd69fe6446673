// Command compressarr runs the media-transcoding orchestrator: it loads
// its plugin registry, starts its configured library watchers, and begins
// admitting jobs as media events arrive.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SmolSoftBoi/compressarr/internal/apperr"
	"github.com/SmolSoftBoi/compressarr/internal/bus"
	"github.com/SmolSoftBoi/compressarr/internal/config"
	"github.com/SmolSoftBoi/compressarr/internal/hostapi"
	"github.com/SmolSoftBoi/compressarr/internal/library"
	"github.com/SmolSoftBoi/compressarr/internal/logger"
	"github.com/SmolSoftBoi/compressarr/internal/paths"
	"github.com/SmolSoftBoi/compressarr/internal/plugin"
	"github.com/SmolSoftBoi/compressarr/internal/probe"
	"github.com/SmolSoftBoi/compressarr/internal/runner"
	"github.com/SmolSoftBoi/compressarr/internal/scheduler"
)

const shutdownGrace = 5 * time.Second

var (
	flagColor       bool
	flagDebug       bool
	flagInstances   int
	flagJobPath     string
	flagPluginPath  string
	flagStoragePath string
)

func main() {
	root := &cobra.Command{
		Use:   "compressarr",
		Short: "Watch library directories and transcode media through plugin-supplied action pipelines",
		RunE:  run,
	}

	root.Flags().BoolVarP(&flagColor, "color", "C", false, "force color output")
	root.Flags().BoolVarP(&flagDebug, "debug", "D", false, "enable debug-level logging")
	root.Flags().IntVarP(&flagInstances, "instances", "I", 1, "maximum concurrent jobs")
	root.Flags().StringVarP(&flagJobPath, "job-path", "J", "", "override job temp-root")
	root.Flags().StringVarP(&flagPluginPath, "plugin-path", "P", "", "additional plugin search path")
	root.Flags().StringVarP(&flagStoragePath, "user-storage-path", "U", defaultStoragePath(), "override the storage root")

	cobra.OnInitialize(func() {
		if err := config.BindEnv(root); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home + "/.compressarr"
}

func run(cmd *cobra.Command, args []string) error {
	level := "info"
	if flagDebug {
		level = "debug"
	}
	pretty := flagColor || (isatty.IsTerminal(os.Stdout.Fd()) && !color.NoColor)
	logger.Initialize(level, pretty)
	log := logger.GetLogger()

	if err := paths.SetRoot(flagStoragePath); err != nil {
		log.Fatal().Err(err).Msg("failed to set storage root")
	}

	log.Info().Str("path", paths.Root()).Msg("storage root resolved")

	cfg, err := config.Load(paths.Root())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config.json")
	}

	b := bus.New()
	api := hostapi.New(b)

	log.Info().Msg("discovering plugins")
	registry := plugin.New(b, api)
	searchPaths := plugin.SearchPaths(flagPluginPath)
	registry.Discover(searchPaths, cfg.Plugins, cfg.DisabledPlugins)
	registry.Initialize()

	jobRoot := flagJobPath
	if jobRoot == "" {
		jobRoot = paths.Jobs()
	}
	if err := os.MkdirAll(jobRoot, 0o755); err != nil {
		log.Fatal().Err(err).Str("path", jobRoot).Msg("failed to create job root")
	}

	jobRunner := runner.New(b)
	buildActionPipeline(registry, cfg, jobRunner, log)

	sched := scheduler.New(b, flagInstances, jobRoot, jobRunner)
	jobRunner.SetActive(sched)

	log.Info().Msg("starting library watchers")
	libConfigs := make([]library.Config, 0, len(cfg.Libraries))
	for _, l := range cfg.Libraries {
		libConfigs = append(libConfigs, library.Config{Root: l.Library, Name: l.Name})
	}
	libManager := library.NewManager(b, probe.New())
	if err := libManager.Load(libConfigs, cfg.DisabledLibraries); err != nil {
		log.Fatal().Err(err).Msg("failed to load libraries")
	}

	b.Publish(bus.LaunchComplete, nil)
	log.Info().Msg("launch complete")

	return waitForShutdown(b, sched, libManager, jobRunner, log)
}

// buildActionPipeline resolves each configured job action against the
// registry and constructs its ActionInstance, in configuration order.
// ResolutionErrors are logged and that entry is skipped; other entries
// still load (section 7).
func buildActionPipeline(registry *plugin.Registry, cfg config.File, jobRunner *runner.Runner, log *zerolog.Logger) {
	for _, entry := range cfg.JobActions {
		_, _, ctor, err := registry.Resolve(entry.JobAction)
		if err != nil {
			log.Warn().Err(err).Str("action", entry.Name).Msg("skipping job action")
			continue
		}

		actionConfig := make(map[string]any, len(entry.Raw))
		for k, raw := range entry.Raw {
			if k == "jobAction" || k == "name" {
				continue
			}
			var v any
			if err := json.Unmarshal(raw, &v); err == nil {
				actionConfig[k] = v
			}
		}

		instance, err := ctor(entry.Name, actionConfig)
		if err != nil {
			log.Warn().Err(err).Str("action", entry.Name).Msg("action constructor failed, skipping")
			continue
		}

		jobRunner.AddAction(entry.Name, instance)
	}
}

func waitForShutdown(b *bus.Bus, sched *scheduler.Scheduler, libManager *library.Manager, jobRunner *runner.Runner, log *zerolog.Logger) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	s := <-sig
	log.Info().Str("signal", s.String()).Msg("shutdown signal received")

	b.Publish(bus.Shutdown, nil)
	sched.Shutdown()
	libManager.Shutdown()

	if !jobRunner.Wait(shutdownGrace) {
		log.Warn().Msg("grace window elapsed with jobs still in flight, forcing exit")
	}

	signum, ok := s.(syscall.Signal)
	if !ok {
		return apperr.Config("unexpected signal type %T", s)
	}
	os.Exit(128 + int(signum))
	return nil
}
