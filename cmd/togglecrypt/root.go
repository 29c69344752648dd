package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/awnumar/memguard"
	"github.com/briandowns/spinner"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/TheMichaelB/togglecrypt/internal/client"
	"github.com/TheMichaelB/togglecrypt/internal/config"
	"github.com/TheMichaelB/togglecrypt/internal/creds"
	"github.com/TheMichaelB/togglecrypt/internal/events"
	"github.com/TheMichaelB/togglecrypt/internal/journal"
	"github.com/TheMichaelB/togglecrypt/internal/models"
	"github.com/TheMichaelB/togglecrypt/internal/services/toggle"
)

// errFilesFailed is returned when at least one file failed; every failure
// has already been reported.
var errFilesFailed = errors.New("one or more files failed")

// app holds per-invocation state shared by the command hooks.
type app struct {
	out    io.Writer
	errOut io.Writer

	cfg    *config.Config
	logger *events.Logger
	runID  string

	prompter creds.Prompter
	lookup   creds.LookupFunc
	spinning bool

	// Flags
	configFile string
	envFile    string
	noWait     bool
	logLevel   string
	logFormat  string
	history    int
}

func newApp(out, errOut io.Writer) *app {
	a := &app{
		out:    out,
		errOut: errOut,
		lookup: os.LookupEnv,
	}

	p := creds.NewTerminalPrompter()
	if p.IsTerminal() {
		a.prompter = p
	}
	a.spinning = isTerminal(errOut)

	return a
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "togglecrypt [flags] <file>...",
		Short: "Encrypt plaintext files and decrypt containers in place",
		Long: `togglecrypt flips each file between plaintext and an encrypted
.encJson container. Files are classified by content: containers are
decrypted back to their recorded location, anything else is encrypted.

The password is prompted once per run. For scripts, set DEV_MODE_SCRIPTS=1
and provide the password in DEV_ENCRYPTION_PASSWORD.`,
		Example: `  togglecrypt notes.txt
  togglecrypt notes.encJson
  DEV_MODE_SCRIPTS=1 DEV_ENCRYPTION_PASSWORD=secret togglecrypt --no-wait *.txt
  togglecrypt --history 20`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initialize,
		RunE:              a.run,
	}

	flags := cmd.Flags()
	flags.BoolVar(&a.noWait, "no-wait", false,
		"Do not pause after a reported error")
	flags.StringVar(&a.configFile, "config", "",
		"Config file (default searches ./togglecrypt.yaml and ~/.config/togglecrypt/config.yaml)")
	flags.StringVar(&a.envFile, "env-file", "",
		"Env file exported before credentials are read (default ./.env, then ~/.config/togglecrypt/.env)")
	flags.StringVar(&a.logLevel, "log-level", "",
		"Log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "",
		"Log format (text, json)")
	flags.IntVar(&a.history, "history", 0,
		"Print the last N journal entries and exit")

	return cmd
}

func (a *app) initialize(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(a.configFile)
	if a.envFile != "" {
		loader.WithEnvFile(a.envFile)
	}

	// Env file first: it may select the credential mode.
	envPath, err := loader.LoadEnvFile()
	switch {
	case errors.Is(err, config.ErrEnvFileNotFound):
		a.printWarning("No env file found, continuing with the current environment")
	case err != nil:
		return err
	}

	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := events.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.runID = uuid.NewString()
	a.logger = logger.WithField("run_id", a.runID)
	events.SetDefault(a.logger)

	a.logger.WithFields(map[string]interface{}{
		"config":   loader.ConfigPath(),
		"env_file": envPath,
	}).Debug("Configuration loaded")

	return nil
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	if a.history > 0 {
		return a.showHistory()
	}

	if len(args) == 0 {
		return errors.New("no files given")
	}

	// Credentials are resolved before any file is touched.
	source := creds.NewSource(a.cfg.Credentials, a.lookup, a.prompter)
	password, err := source.Password()
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(password)

	errorPause := a.cfg.Toggle.ErrorPause
	if source.Mode() == creds.NonInteractive {
		a.printWarning("DEV MODE: using password from %s", a.cfg.Credentials.PasswordVar)
		errorPause = 0
	}
	if a.noWait || !a.cfg.Toggle.WaitOnError {
		errorPause = 0
	}

	ctx := events.WithRunID(events.WithLogger(context.Background(), a.logger), a.runID)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	progress := a.newProgress()
	c, err := client.New(a.cfg, a.logger, client.Options{
		ErrorPause: errorPause,
		RunID:      a.runID,
		OnEvent:    progress.handle,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	start := time.Now()
	results := c.Process(ctx, args, password)
	progress.stop()

	summary := models.Summarize(results)
	a.printSummary(summary, results, time.Since(start))

	if ctx.Err() != nil {
		return fmt.Errorf("interrupted after %d of %d files", len(results), len(args))
	}
	if summary.Failed > 0 {
		return errFilesFailed
	}
	return nil
}

// progress reports each result as it completes and animates a spinner
// on terminals while a file is being processed.
type progress struct {
	a *app
	s *spinner.Spinner
}

func (a *app) newProgress() *progress {
	p := &progress{a: a}
	if a.spinning {
		p.s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.errOut))
	}
	return p
}

func (p *progress) handle(e toggle.Event) {
	switch e.Type {
	case toggle.EventFileStarted:
		if p.s != nil {
			p.s.Suffix = fmt.Sprintf(" Processing %s (%d/%d)...", filepath.Base(e.Path), e.Index+1, e.Total)
			p.s.Start()
		}
	case toggle.EventFileComplete, toggle.EventFileError:
		p.stop()
		p.a.printResult(*e.Result)
	}
}

func (p *progress) stop() {
	if p.s != nil {
		p.s.Stop()
	}
}

func (a *app) printResult(r models.Result) {
	if !r.OK() {
		a.printError("%v", r.Err)
		return
	}

	verb := "Encrypted"
	if r.Op == models.OpDecrypt {
		verb = "Decrypted"
	}
	a.printSuccess("%s %s → %s (%s)", verb, r.Source, r.Target, humanize.Bytes(uint64(r.Size)))

	if r.Cleanup.Err != nil {
		a.printWarning("Could not remove %s: %v", r.Source, r.Cleanup.Err)
	}
}

func (a *app) printSummary(s models.Summary, results []models.Result, elapsed time.Duration) {
	var total int64
	for _, r := range results {
		if r.OK() {
			total += r.Size
		}
	}

	a.printInfo("%d encrypted, %d decrypted, %d failed (%s in %s)",
		s.Encrypted, s.Decrypted, s.Failed, humanize.Bytes(uint64(total)), elapsed.Round(time.Millisecond))
}

func (a *app) showHistory() error {
	c, err := client.New(a.cfg, a.logger, client.Options{RunID: a.runID})
	if err != nil {
		return err
	}
	defer c.Close()

	if !c.JournalEnabled() {
		a.printWarning("Journal is disabled (set journal.backend to json or sqlite)")
		return nil
	}

	entries, err := c.History(a.history)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-7s  %s", humanize.Time(e.Time), e.Op, e.Source)
		if e.Target != "" {
			line += " → " + e.Target
		}
		if e.Status == journal.StatusFailed {
			a.printError("%s: %s", line, e.Error)
			continue
		}
		a.printSuccess("%s", line)
	}

	return nil
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}
