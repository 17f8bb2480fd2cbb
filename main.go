package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/go-pluto/entropy/config"
	"github.com/go-pluto/entropy/disklog"
	"github.com/go-pluto/entropy/merkle"
	"github.com/go-pluto/entropy/sched"
	"github.com/go-pluto/entropy/store"
)

// Functions

// initLogger initializes a JSON gokit-logger set
// to the according log level supplied via cli flag.
func initLogger(loglevel string) log.Logger {

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"caller", log.DefaultCaller,
	)

	switch strings.ToLower(loglevel) {
	case "info":
		logger = level.NewFilter(logger, level.AllowInfo())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowDebug())
	}

	return logger
}

func main() {

	// Set CPUs usable by entropy to all available.
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Parse command-line flags.
	configFlag := flag.String("config", "config.toml", "Provide path to configuration file in TOML syntax.")
	envFlag := flag.String("env", "", "Optionally provide path to an .env file with host-local overrides.")
	loglevelFlag := flag.String("loglevel", "debug", "This flag sets the default logging level.")
	evaluationFlag := flag.Bool("evaluation", false, "Append this flag to run a single-process divergence and repair round between two in-memory replicas and exit.")
	flag.Parse()

	// Read configuration from file.
	conf, err := config.LoadConfig(*configFlag)
	if err != nil {
		level.Error(initLogger(*loglevelFlag)).Log("msg", "failed to load config", "err", err)
		os.Exit(1)
	}

	loglevel := *loglevelFlag

	// An .env file can override host-local values.
	if *envFlag != "" {

		env, err := config.LoadEnv(*envFlag)
		if err != nil {
			level.Error(initLogger(loglevel)).Log("msg", "failed to load env file", "err", err)
			os.Exit(1)
		}

		if env.LogLevel != "" {
			loglevel = env.LogLevel
		}

		if env.BlockLogRoot != "" {
			conf.Replica.BlockLogLoc = env.BlockLogRoot
		}
	}

	logger := initLogger(loglevel)
	logger = log.With(logger, "replica", conf.Replica.Name)

	if *evaluationFlag {
		runEvaluation(logger, conf)
		return
	}

	metrics := NewEntropyMetrics(conf.Replica.PrometheusAddr)
	go runPromHTTP(logger, conf.Replica.PrometheusAddr)

	// Open the durable block log if one is configured.
	var blockLog *disklog.Log
	if conf.Replica.BlockLogLoc != "" {

		blockLog, err = disklog.OpenLog(conf.Replica.BlockLogLoc)
		if err != nil {
			level.Error(logger).Log("msg", "failed to open block log", "err", err)
			os.Exit(1)
		}
		defer blockLog.Close()
	}

	// Assemble the replica-local dataset service and
	// refill its index from the block log.
	service := store.NewLoggingService(
		store.NewService(merkle.InitTree(), blockLog, metrics.Store, conf.Sync.CompareBudget),
		logger,
	)

	err = service.Init()
	if err != nil {
		level.Error(logger).Log("msg", "failed to initialize dataset service", "err", err)
		os.Exit(1)
	}

	level.Info(logger).Log(
		"msg", "replica dataset ready",
		"numKeys", len(service.Keys()),
		"rootHash", service.RootHash().String(),
	)

	// Peers named in the config need a transport-backed
	// Peer implementation supplied by the surrounding
	// deployment. The standalone binary has none, so it
	// runs the loop without peers and only maintains
	// the local tree and metrics.
	if len(conf.Peers) > 0 {
		level.Warn(logger).Log(
			"msg", "configured peers ignored, standalone binary carries no transport",
			"numPeers", len(conf.Peers),
		)
	}

	scheduler := sched.InitScheduler(logger, metrics.Sched, service, nil, logRepairer{logger: logger}, conf.Sync.IntervalDur)
	scheduler.Run()

	// Wait for shutdown signal.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	level.Info(logger).Log("msg", "shutting down")
	scheduler.Stop()
}
