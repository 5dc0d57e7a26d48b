package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btclog/v2"
	"github.com/theater-rt/theater/internal/actorruntime"
	"github.com/theater-rt/theater/internal/baselib/actor"
	"github.com/theater-rt/theater/internal/build"
	"github.com/theater-rt/theater/internal/chain"
	"github.com/theater-rt/theater/internal/execctl"
	"github.com/theater-rt/theater/internal/handler"
	"github.com/theater-rt/theater/internal/permission"
	"github.com/theater-rt/theater/internal/registry"
	"github.com/theater-rt/theater/internal/router"
	"github.com/theater-rt/theater/internal/shutdownctl"
	"github.com/theater-rt/theater/internal/store"
	"github.com/theater-rt/theater/internal/theater"
	"github.com/theater-rt/theater/internal/theaterid"
)

func main() {
	var (
		registryDB     = flag.String("registry-db", "~/.theater/registry.db", "Path to the SQLite actor-process registry")
		dataDir        = flag.String("data-dir", "~/.theater/data", "Directory the content store persists to")
		shutdownGrace  = flag.Duration("shutdown-grace", shutdownctl.DefaultGracePeriod, "Grace period for in-flight calls on global shutdown")
		logDir         = flag.String("log-dir", "~/.theater/logs", "Directory for log files (empty to disable file logging)")
		maxLogFiles    = flag.Int("max-log-files", build.DefaultMaxLogFiles, "Maximum number of rotated log files to keep")
		maxLogFileSize = flag.Int("max-log-file-size", build.DefaultMaxLogFileSize, "Maximum log file size in MB before rotation")
	)
	flag.Parse()

	expandHome := func(path string) string {
		expanded := os.ExpandEnv(path)
		if expanded == path && len(path) > 0 && path[0] == '~' {
			home, err := os.UserHomeDir()
			if err != nil {
				log.Fatalf("Failed to get home directory: %v", err)
			}
			expanded = home + path[1:]
		}
		return expanded
	}

	registryDBExpanded := expandHome(*registryDB)
	dataDirExpanded := expandHome(*dataDir)
	logDirExpanded := expandHome(*logDir)

	// Initialize the rotating log file writer if a log directory is
	// configured. This creates ~/.theater/logs/theaterd.log with
	// automatic rotation and gzip compression of old files.
	var logRotator *build.RotatingLogWriter
	if logDirExpanded != "" {
		logRotator = build.NewRotatingLogWriter()
		err := logRotator.InitLogRotator(&build.LogRotatorConfig{
			LogDir:         logDirExpanded,
			MaxLogFiles:    *maxLogFiles,
			MaxLogFileSize: *maxLogFileSize,
			Filename:       "theaterd.log",
		})
		if err != nil {
			log.Printf(
				"Failed to init log rotator: %v "+
					"(continuing without file logging)",
				err,
			)
			logRotator = nil
		} else {
			defer logRotator.Close()

			multiWriter := io.MultiWriter(os.Stderr, logRotator)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags)
		}
	}

	log.Printf("theaterd version %s commit=%s go=%s",
		build.Version(), commitInfo(), build.GoVersion,
	)

	// Create btclog handlers for structured subsystem logging. When file
	// logging is enabled, logs go to both the console and the rotating
	// log file (matching lnd's dual-stream pattern).
	var btclogHandlers []btclog.Handler
	consoleHandler := btclog.NewDefaultHandler(os.Stderr)
	btclogHandlers = append(btclogHandlers, consoleHandler)

	if logRotator != nil {
		fileHandler := btclog.NewDefaultHandler(logRotator)
		btclogHandlers = append(btclogHandlers, fileHandler)

		log.Printf(
			"Log file rotation enabled: dir=%s, max_files=%d, "+
				"max_size=%dMB",
			logDirExpanded, *maxLogFiles, *maxLogFileSize,
		)
	}

	combinedHandler := build.NewHandlerSet(btclogHandlers...)
	baseLogger := btclog.NewSLogger(combinedHandler)

	// Wire every subsystem's own UseLogger, one prefixed tag per
	// package, following the teacher's actorLogger.WithPrefix(...)
	// pattern in cmd/substrated/main.go.
	store.UseLogger(baseLogger.WithPrefix("STOR"))
	router.UseLogger(baseLogger.WithPrefix("RTR"))
	registry.UseLogger(baseLogger.WithPrefix("REG"))
	permission.UseLogger(baseLogger.WithPrefix("PERM"))
	execctl.UseLogger(baseLogger.WithPrefix("XCTL"))
	actorruntime.UseLogger(baseLogger.WithPrefix("RNTM"))
	theater.UseLogger(baseLogger.WithPrefix("THTR"))
	chain.UseLogger(baseLogger.WithPrefix("CHAN"))
	actor.UseLogger(baseLogger.WithPrefix("ACTR"))

	// Open the actor-process registry (spec §4.9's durable ActorProcess
	// projection, supplemented per SPEC_FULL.md §12 restart recovery).
	registryStore, err := registry.Open(registry.Config{
		DatabaseFileName: registryDBExpanded,
	})
	if err != nil {
		log.Fatalf("Failed to open actor-process registry: %v", err)
	}
	defer registryStore.Close()

	// Best-effort startup reconciliation: log what the registry
	// remembers from a prior run. ActorProcessRecord does not retain a
	// full Manifest (InitState/InitParams/Handlers are never
	// persisted), so automatic respawn is out of scope here; this is
	// purely an operator-visible accounting pass, matching SPEC_FULL.md §12's
	// "single-node restart bookkeeping" supplement without overreaching
	// into a full manifest store the spec never asked for.
	if recs, err := registryStore.ListAll(context.Background()); err != nil {
		log.Printf("Warning: failed to list persisted actor processes: %v", err)
	} else if len(recs) > 0 {
		log.Printf("Registry reconciliation: %d actor process(es) on record from a prior run", len(recs))
	}

	// Start the content store actor (spec §4.1's ContentStore).
	storeRef, err := store.StartStoreActor(store.ActorConfig{Dir: dataDirExpanded})
	if err != nil {
		log.Fatalf("Failed to start content store: %v", err)
	}
	storeClient := store.NewClient(storeRef)
	log.Printf("ContentStore actor started (dir=%s)", dataDirExpanded)

	// Start the message router actor (spec §4.5's MessageRouter).
	routerRef := router.StartRouterActor(router.ActorConfig{})
	routerClient := router.NewClient(routerRef)
	log.Println("MessageRouter actor started")

	// Build the handler registry: every Handler implementation this
	// daemon makes available to spawned actors, matched against
	// manifest-declared handler names at spawn time (spec §4.8 step 2).
	handlers := handler.NewRegistry()
	handlers.Register(&handler.RandomHandler{Source: rand.Reader})
	handlers.Register(&handler.SupervisorHandler{})
	handlers.Register(&handler.MessagingHandler{Router: routerClient})
	log.Printf("Handler registry populated: %v", handlers.Names())

	// Start the theater runtime (spec §4.9's TheaterRuntime): the
	// global orchestrator holding the actors map and every
	// spawn/stop/restart/supervision command.
	shutdown := shutdownctl.New(*shutdownGrace)
	theaterClient := theater.StartTheaterRuntime(theater.ActorConfig{}, theater.Config{
		RegistryStore: registryStore,
		RouterClient:  routerClient,
		StoreClient:   storeClient,
		Handlers:      handlers,
		NewComponent:  newUnconfiguredComponentFactory(),
		Shutdown:      shutdown,
	})
	log.Println("TheaterRuntime actor started")

	// Set up signal handling for graceful shutdown, matching the
	// teacher's "second signal forces exit" pattern.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf(
			"Received %v, initiating graceful shutdown "+
				"(send again to force exit)...", sig,
		)
		cancel()

		sig = <-sigCh
		log.Printf("Received %v again, forcing immediate exit", sig)
		os.Exit(1)
	}()

	log.Println("theaterd running (no management-socket wire protocol in scope; see spec.md §1)")

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(), *shutdownGrace+5*time.Second,
	)
	defer shutdownCancel()

	if err := theaterClient.Shutdown(shutdownCtx); err != nil {
		log.Printf("TheaterRuntime shutdown incomplete: %v", err)
	}
}

// newUnconfiguredComponentFactory returns a ComponentFactory that always
// fails. No wasm runtime library appears anywhere in the example corpus
// this module is grounded on (internal/handler's own package doc), so this
// daemon has nothing to bind the factory to; an embedder wiring a real
// component-model host replaces this with one satisfying
// actorruntime.ComponentFactory directly. Every other theaterd subsystem
// (store, router, registry, handler registry, supervision) comes up and
// stays usable independent of this — only actually spawning a wasm-backed
// actor needs it.
func newUnconfiguredComponentFactory() actorruntime.ComponentFactory {
	return func(handler.ActorHandle, theaterid.ContentRef) (
		handler.ActorComponent, handler.ActorInstance, error) {

		return nil, nil, fmt.Errorf(
			"no wasm component engine configured for this " +
				"theaterd build",
		)
	}
}

// commitInfo returns the best available commit identifier. It prefers the
// Commit string set via ldflags (which includes tag info), falling back to
// CommitHash and then to "dev" when neither was set.
func commitInfo() string {
	if build.Commit != "" {
		return build.Commit
	}
	if build.CommitHash != "" {
		return build.CommitHash
	}

	return "dev"
}
