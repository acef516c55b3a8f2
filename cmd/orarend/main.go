package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"orarend/internal/config"
	"orarend/internal/conflict"
	"orarend/internal/csvimport"
	"orarend/internal/ics"
	appLog "orarend/internal/log"
	"orarend/internal/model"
	"orarend/internal/semester"
	"orarend/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	csvPath    string
	listen     string
	once       bool
	icsPath    string
	slotsPath  string
	logLevel   string
}

func main() {
	flags := parseFlags()

	if flags.logLevel != "" {
		lvl, ok := appLog.ParseLevel(flags.logLevel)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown log level %q\n", flags.logLevel)
			os.Exit(2)
		}
		appLog.SetLevel(lvl)
	}

	appLog.Info("orarend starting", "version", version)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override the config file when set.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.csvPath != "" {
		conf.Source.Path = flags.csvPath
	}
	if flags.icsPath != "" {
		conf.ICSOutput = flags.icsPath
	}
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"source", conf.Source.Path,
		"encoding", conf.Source.Encoding,
		"delimiter", conf.Source.Delimiter,
		"refresh", conf.RefreshCron,
		"holidays", len(conf.Holidays),
		"once", flags.once,
	)

	loc := conf.Location()
	clock := semester.SystemClock{Location: loc}

	courses, err := importCourses(conf)
	if err != nil {
		appLog.Error("initial import failed", err, "source", conf.Source.Path)
		os.Exit(1)
	}

	if flags.once {
		if err := runOnce(conf, flags, courses, clock); err != nil {
			appLog.Error("one-shot run failed", err)
			os.Exit(1)
		}
		appLog.Info("orarend exiting")
		return
	}

	store := web.NewStore()
	store.Replace(courses, clock.Now())

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	sched := cron.New(cron.WithLocation(loc))
	if _, err := sched.AddFunc(conf.RefreshCron, func() {
		reimport(conf, store, clock)
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()

	srv := &http.Server{
		Addr:              conf.Listen,
		Handler:           web.NewServer(conf, store, clock).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			appLog.Error("HTTP server failed", err, "listen", conf.Listen)
			exitCode = 1
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP server shutdown failed", err)
	}
	<-sched.Stop().Done()

	appLog.Info("orarend exiting")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./orarend.yaml", "Path to config file")
	flag.StringVar(&cfg.csvPath, "csv", "", "Course offering CSV export (overrides config if set)")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Import once, write requested outputs and exit")
	flag.StringVar(&cfg.icsPath, "ics", "", "Write the current semester as ICS to this path (with -once)")
	flag.StringVar(&cfg.slotsPath, "slots", "", "Write all schedule slots as CSV to this path (with -once)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Minimum log level: debug, info, warn, error")

	flag.Parse()

	return cfg
}

// importCourses reads the configured export and logs every conflict found.
func importCourses(conf *config.Config) ([]model.Course, error) {
	opts, err := conf.ImportOptions()
	if err != nil {
		return nil, err
	}
	courses, err := csvimport.Load(conf.Source.Path, opts)
	if err != nil {
		return nil, err
	}

	conflicts := conflict.Find(courses)
	for _, c := range conflicts {
		appLog.Warn("schedule conflict",
			"a", c.A.ClassCode,
			"a_slot", c.A.Slot.Day.String()+" "+c.A.Slot.Start.String()+"-"+c.A.Slot.End.String(),
			"b", c.B.ClassCode,
			"b_slot", c.B.Slot.Day.String()+" "+c.B.Slot.Start.String()+"-"+c.B.Slot.End.String(),
		)
	}
	appLog.Info("import completed", "courses", len(courses), "conflicts", len(conflicts))
	return courses, nil
}

// reimport runs on the refresh schedule. A failed import keeps the previous
// catalogue in place.
func reimport(conf *config.Config, store *web.Store, clock semester.Clock) {
	courses, err := importCourses(conf)
	if err != nil {
		appLog.Error("scheduled import failed; keeping previous catalogue", err, "source", conf.Source.Path)
		return
	}
	store.Replace(courses, clock.Now())
}

func runOnce(conf *config.Config, flags flagConfig, courses []model.Course, clock semester.Clock) error {
	if conf.ICSOutput != "" {
		if err := writeICS(conf, courses, clock); err != nil {
			return err
		}
	}
	if flags.slotsPath != "" {
		if err := writeSlots(flags.slotsPath, courses); err != nil {
			return err
		}
	}
	return nil
}

func writeICS(conf *config.Config, courses []model.Course, clock semester.Clock) error {
	loc := conf.Location()
	holidays, err := conf.HolidayDates(loc)
	if err != nil {
		return err
	}
	sem := semester.CurrentFrom(clock)
	cfg := ics.ExpandConfig{DisplayLocation: loc, Holidays: holidays}.ForSemester(sem)

	body, err := ics.Export(courses, cfg, sem.String(), clock.Now())
	if err != nil {
		return fmt.Errorf("ics: export %s: %w", sem, err)
	}
	if err := writeFile(conf.ICSOutput, []byte(body)); err != nil {
		return err
	}
	appLog.Info("wrote ICS", "path", conf.ICSOutput, "semester", sem.String())
	return nil
}

func writeSlots(path string, courses []model.Course) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("slots: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("slots: %w", err)
	}
	if err := csvimport.WriteSlots(f, courses); err != nil {
		f.Close()
		return fmt.Errorf("slots: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("slots: %w", err)
	}
	appLog.Info("wrote slot CSV", "path", path)
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
