package main

import (
	"bytes"
	"context"
	_ "embed"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"golang.org/x/term"
	"mvdan.cc/sh/v3/interp"

	"github.com/wrenshell/wren/internal/completion"
	"github.com/wrenshell/wren/internal/config"
	"github.com/wrenshell/wren/internal/core"
	"github.com/wrenshell/wren/internal/editor"
	"github.com/wrenshell/wren/internal/environment"
	"github.com/wrenshell/wren/internal/history"
	"github.com/wrenshell/wren/internal/jobs"
	"github.com/wrenshell/wren/internal/prompt"
	"github.com/wrenshell/wren/internal/shellexec"
	"github.com/wrenshell/wren/internal/signals"
	"github.com/wrenshell/wren/internal/styles"
)

var BUILD_VERSION = "dev"

//go:embed .wrenrc.default
var DEFAULT_VARS []byte

var command = flag.String("c", "", "run a command")
var loginShell = flag.Bool("l", false, "run as a login shell")
var rcFile = flag.String("rcfile", "", "use a custom rc file instead of ~/.wrenrc")
var strictConfig = flag.Bool("strict-config", false, "fail fast if configuration files contain errors")
var minimalEditor = flag.Bool("minimal", false, "use the minimal line editor even on a terminal")

var helpFlag bool
var versionFlag bool

func init() {
	flag.BoolVar(&helpFlag, "h", false, "display help information")
	flag.BoolVar(&helpFlag, "help", false, "display help information")

	flag.BoolVar(&versionFlag, "v", false, "display build version")
	flag.BoolVar(&versionFlag, "version", false, "display build version")

	// Register custom zstd sink for compressed logging
	if err := zap.RegisterSink("zstd", newCompressedSink); err != nil {
		panic(fmt.Sprintf("failed to register zstd sink: %v", err))
	}
}

func main() {
	flag.Parse()

	if versionFlag {
		fmt.Println(BUILD_VERSION)
		return
	}
	if helpFlag {
		printUsage()
		return
	}

	cfg, cfgErr := config.Load(core.ConfigFile())

	runner, err := initializeRunner()
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR("wren: "+err.Error()))
		os.Exit(1)
	}

	logger, err := initializeLogger(runner)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("-------- new wren session --------", zap.Any("args", os.Args))
	if cfgErr != nil {
		logger.Warn("config file problem, using defaults", zap.Error(cfgErr))
		fmt.Fprintln(os.Stderr, styles.ERROR("wren: "+cfgErr.Error()))
		if *strictConfig {
			os.Exit(1)
		}
	}

	// the rc files ran already, so WREN_HISTSIZE and WREN_HISTDEDUP can
	// override the config file here
	store := history.NewFileStore(core.HistoryFile(), historyOptions(runner, cfg, logger), logger)
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close history: %v\n", err)
		}
	}()

	err = run(runner, store, cfg, logger)

	if code, ok := interp.IsExitStatus(err); ok {
		os.Exit(int(code))
	}
	if err != nil {
		logger.Error("unhandled error", zap.Error(err))
		fmt.Fprintln(os.Stderr, styles.ERROR("wren: "+err.Error()))
		os.Exit(1)
	}
}

func run(runner *interp.Runner, store *history.FileStore, cfg config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	// wren -c "echo hello"
	if *command != "" {
		return shellexec.RunCommand(ctx, runner, *command)
	}

	// wren script.sh
	if flag.NArg() > 0 {
		for _, path := range flag.Args() {
			if err := shellexec.RunFile(ctx, runner, path); err != nil {
				return err
			}
		}
		return nil
	}

	// wren
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return runInteractive(ctx, runner, store, cfg, logger)
	}
	return runMinimalSession(ctx, runner, store, cfg, logger, nil, nil)
}

// runInteractive wires the full interactive session: signal bridge, job
// coordinator, terminal handle, history index, and the configured line
// editor.
func runInteractive(ctx context.Context, runner *interp.Runner, store *history.FileStore, cfg config.Config, logger *zap.Logger) error {
	bridge := signals.New(logger)
	editorQueue := bridge.Subscribe("editor", 16)
	jobsQueue := bridge.Subscribe("jobs", 16)
	bridge.Start()
	defer bridge.Stop()

	var coordinator *jobs.Coordinator
	tty, err := jobs.OpenTty()
	if err != nil {
		// no controlling terminal: run without job control
		logger.Warn("job control unavailable", zap.Error(err))
		coordinator = jobs.NewCoordinator(nil, jobsQueue, logger)
	} else {
		coordinator = jobs.NewCoordinator(tty, jobsQueue, logger)
		defer func() {
			if err := coordinator.Release(); err != nil {
				logger.Warn("terminal release failed", zap.Error(err))
			}
		}()
	}

	index, err := history.OpenIndex(core.IndexFile())
	if err != nil {
		logger.Warn("history index unavailable", zap.Error(err))
		index = nil
	}
	defer func() { _ = index.Close() }()

	specs := completion.NewSpecRegistry()
	if err := attachJobHandlers(runner, coordinator, store, index, specs, logger); err != nil {
		return fmt.Errorf("installing exec handlers: %w", err)
	}

	sessionID := uuid.New().String()
	session := &core.Session{
		Runner:    runner,
		History:   store,
		Index:     index,
		Jobs:      coordinator,
		Prompt:    prompt.NewEngine(runner, environment.GetSubstTimeout(runner, logger), logger),
		Logger:    logger,
		SessionID: sessionID,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}

	if *minimalEditor || cfg.Editor == "minimal" {
		session.Editor = editor.NewMinimal(os.Stdin, os.Stdout, editorQueue, logger)
	} else {
		bridge := completion.NewBridge(logger,
			completion.NewShellSource(runner, logger),
			completion.NewStaticSource(logger),
			completion.NewContextSource(),
			completion.NewSpecSource(specs, logger),
		)
		session.Editor = editor.NewRich(editor.RichOptions{
			History:  store,
			Bridge:   bridge,
			Queue:    editorQueue,
			Logger:   logger,
			Output:   os.Stdout,
			MenuRows: cfg.MenuRows,
		})
	}
	defer func() { _ = session.Editor.Close() }()

	return session.Run(ctx)
}

// runMinimalSession handles piped stdin: same loop, no terminal, no job
// control, no signal bridge.
func runMinimalSession(ctx context.Context, runner *interp.Runner, store *history.FileStore, cfg config.Config, logger *zap.Logger, queue *signals.Queue, coordinator *jobs.Coordinator) error {
	session := &core.Session{
		Runner:    runner,
		Editor:    editor.NewMinimal(os.Stdin, os.Stdout, queue, logger),
		History:   store,
		Jobs:      coordinator,
		Prompt:    prompt.NewEngine(runner, environment.GetSubstTimeout(runner, logger), logger),
		Logger:    logger,
		SessionID: uuid.New().String(),
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
	return session.Run(ctx)
}

// attachJobHandlers installs the exec middleware chain once the session
// dependencies exist.
func attachJobHandlers(runner *interp.Runner, coordinator *jobs.Coordinator, store *history.FileStore, index *history.Index, specs *completion.SpecRegistry, logger *zap.Logger) error {
	return interp.ExecHandlers(
		core.NewJobsCommandHandler(coordinator),
		core.NewFgCommandHandler(coordinator),
		core.NewBgCommandHandler(coordinator),
		core.NewHistoryCommandHandler(store, index),
		completion.NewCompleteCommandHandler(specs),
		core.NewJobExecHandler(coordinator, logger),
	)(runner)
}

// historyOptions layers the shell-variable overrides, set by the rc
// files, over the config file settings.
func historyOptions(runner *interp.Runner, cfg config.Config, logger *zap.Logger) history.Options {
	return history.Options{
		Dedup:      cfg.DedupEnabled() && !environment.HistoryDedupDisabled(runner),
		MaxEntries: environment.GetHistorySize(runner, cfg.HistorySize, logger),
	}
}

func printUsage() {
	fmt.Println(styles.NOTICE("Usage:") + " wren [flags] [script]")
	fmt.Println("\nAn interactive POSIX shell.")
	fmt.Println()

	fmt.Println(styles.NOTICE("Options:"))

	printed := make(map[string]bool)
	flag.VisitAll(func(f *flag.Flag) {
		if printed[f.Name] {
			return
		}

		aliases := []string{f.Name}
		flag.VisitAll(func(p *flag.Flag) {
			if p.Name == f.Name {
				return
			}
			if p.Usage == f.Usage {
				aliases = append(aliases, p.Name)
				printed[p.Name] = true
			}
		})
		printed[f.Name] = true

		var shortFlags, longFlags []string
		for _, name := range aliases {
			if len(name) == 1 {
				shortFlags = append(shortFlags, "-"+name)
			} else {
				longFlags = append(longFlags, "-"+name)
			}
		}

		flagStr := strings.Join(append(shortFlags, longFlags...), ", ")

		argName, usage := flag.UnquoteUsage(f)
		if argName != "" {
			flagStr += " <" + argName + ">"
		}

		fmt.Printf("  %-28s %s\n", flagStr, usage)
	})

	fmt.Println()
	fmt.Println(styles.NOTICE("Keyboard shortcuts:"))
	fmt.Printf("  %-28s %s\n", "Tab", "Complete commands, files, and variables")
	fmt.Printf("  %-28s %s\n", "Ctrl+R", "Search command history")
	fmt.Printf("  %-28s %s\n", "Ctrl+C", "Cancel current input")
	fmt.Printf("  %-28s %s\n", "Ctrl+D", "Exit shell (on empty line)")
	fmt.Printf("  %-28s %s\n", "Ctrl+Z", "Suspend the foreground job")
}

// initializeRunner loads the shell configuration files and sets up the
// interpreter. Exec middleware attaches later, once the session's job
// coordinator exists.
func initializeRunner() (*interp.Runner, error) {
	runner, err := interp.New(
		interp.Interactive(true),
		interp.StdIO(os.Stdin, os.Stdout, os.Stderr),
	)
	if err != nil {
		return nil, err
	}

	// load default vars
	if err := shellexec.RunReader(
		context.Background(),
		runner,
		bytes.NewReader(DEFAULT_VARS),
		"wren-defaults",
	); err != nil {
		return nil, err
	}

	var configFiles []string
	if *rcFile != "" {
		configFiles = []string{*rcFile}
	} else {
		configFiles = []string{
			filepath.Join(core.HomeDir(), ".wrenrc"),
		}
		if *loginShell || strings.HasPrefix(os.Args[0], "-") {
			configFiles = append(
				[]string{
					"/etc/profile",
					filepath.Join(core.HomeDir(), ".wren_profile"),
				},
				configFiles...,
			)
		}
	}

	for _, configFile := range configFiles {
		if stat, err := os.Stat(configFile); err == nil && stat.Size() > 0 {
			if err := shellexec.RunFile(context.Background(), runner, configFile); err != nil {
				fmt.Fprintf(os.Stderr, "Configuration file %s contains errors: %v\n", configFile, err)
				if *strictConfig {
					return nil, fmt.Errorf("aborting due to configuration error in %s: %w", configFile, err)
				}
			}
		}
	}

	return runner, nil
}

func initializeLogger(runner *interp.Runner) (*zap.Logger, error) {
	logLevel := environment.GetLogLevel(runner)
	if BUILD_VERSION == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	if err := core.RotateLogFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to rotate log files: %v\n", err)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{
		"zstd://" + core.LogFile(),
	}
	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, err
	}

	return logger, nil
}

// newCompressedSink creates a zap sink that writes zstd frames. An
// existing file keeps its frames and new ones are appended; a file that
// is not valid zstd is truncated.
func newCompressedSink(u *url.URL) (zap.Sink, error) {
	filePath := u.Path

	flags := os.O_CREATE | os.O_WRONLY

	fileInfo, err := os.Stat(filePath)
	if err == nil && fileInfo.Size() > 0 {
		if isValidZstdFile(filePath) {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
	}

	file, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return &compressedSink{
		file:    file,
		encoder: encoder,
	}, nil
}

// isValidZstdFile checks if a file starts with the zstd magic number.
func isValidZstdFile(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer func() {
		_ = file.Close()
	}()

	buf := make([]byte, 4)
	n, err := file.Read(buf)
	if err != nil || n < 4 {
		return false
	}

	return buf[0] == 0x28 && buf[1] == 0xB5 && buf[2] == 0x2F && buf[3] == 0xFD
}

// compressedSink wraps a zstd encoder to provide compressed log file
// writing. It implements the WriteSyncer interface required by zap's
// custom sinks.
type compressedSink struct {
	file    *os.File
	encoder *zstd.Encoder
}

// Write writes compressed data to the underlying file via the zstd
// encoder. Returns len(p) on success to satisfy the io.Writer contract,
// regardless of how many compressed bytes were written.
func (s *compressedSink) Write(p []byte) (int, error) {
	_, err := s.encoder.Write(p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// Sync flushes the encoder buffer and syncs the file to disk.
func (s *compressedSink) Sync() error {
	if err := s.encoder.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close closes the encoder and then the underlying file. The file is
// always closed, even if encoder close fails.
func (s *compressedSink) Close() error {
	encErr := s.encoder.Close()
	fileErr := s.file.Close()

	if encErr != nil {
		return encErr
	}
	return fileErr
}
