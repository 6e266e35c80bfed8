package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManouchehrRasoulli/rfsorter/internal"
	"github.com/ManouchehrRasoulli/rfsorter/pkg"
	"github.com/ManouchehrRasoulli/rfsorter/pkg/filehandler"
	"github.com/ManouchehrRasoulli/rfsorter/pkg/logger"
)

func main() {
	var config string
	var path string
	var recursive bool

	flag.StringVar(&config, "config", "", "specify configuration file for service (.yml or .toml).")
	flag.StringVar(&config, "c", "", "specify configuration file for service (.yml or .toml).")
	flag.StringVar(&path, "path", "", "directory to watch, overrides the configuration file.")
	flag.StringVar(&path, "p", "", "directory to watch, overrides the configuration file.")
	flag.BoolVar(&recursive, "recursive", false, "watch every directory below path.")
	flag.BoolVar(&recursive, "r", false, "watch every directory below path.")
	flag.Parse()

	lg := log.New(os.Stdout, "rfsorter --> ", log.Ldate|log.Lmicroseconds)
	clg := logger.NewColorLogger(lg)

	if err := run(lg, clg, config, path, recursive); err != nil {
		clg.Printcf(logger.ColorRed, "error rfsorter : %v", err)
		os.Exit(1)
	}
}


func run(lg *log.Logger, clg *logger.ColorLogger, config, path string, recursive bool) error {
	cfg := pkg.DefaultConfig()
	if config != "" {
		clg.Printcf(logger.ColorGreen, "start rfsorter : with config file %v", config)

		var err error
		cfg, err = pkg.ReadConfig(config)
		if err != nil {
			return fmt.Errorf("reading configuration file %s: %w", config, err)
		}
	}

	// flags win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "path", "p":
			cfg.Path = path
		case "recursive", "r":
			cfg.Recursive = recursive
		}
	})
	if cfg.Path == "" && flag.NArg() > 0 {
		cfg.Path = flag.Arg(0)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	clg.Printcf(logger.ColorBlue, "config rfsorter : path: %s, recursive: %t, backend: %s, collision: %s",
		cfg.Path, cfg.Recursive, cfg.Backend, cfg.Collision)

	if cfg.Lock {
		lock, err := pkg.AcquireLock(cfg.Path)
		if err != nil {
			return err
		}
		defer lock.Unlock()
	}

	options, err := cfg.Options()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	fh := filehandler.NewHandler(lg)
	options = append(options, internal.WithStatusHook(clg.StatusHook), internal.WithStatusHook(fh.EventHook))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watch, err := internal.NewWatcher(cfg.Path, options...)
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}

	err = watch.Run(ctx)
	fh.ListFiles()
	if err != nil {
		return fmt.Errorf("running watcher: %w", err)
	}

	clg.Printcf(logger.ColorGreen, "stop rfsorter : %s", watch.State())
	return nil
}
