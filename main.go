package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"gopkg.in/natefinch/lumberjack.v2"
	"i4.energy/across/at"
	"i4.energy/across/cellular"
	_ "i4.energy/across/cellular/sim800"
)

func main() {
	configFile := flag.String("config", os.Getenv("CONFIG_FILE"), "Path to a YAML configuration file")
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the modem")
	flag.Int("baud-rate", 115200, "Baud rate for serial communication")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("log-file", "", "Write logs to this file instead of stderr")
	flag.String("chipset", "sim800", "Modem chipset adapter")
	flag.Duration("at-timeout", 5*time.Second, "Default AT command timeout")
	flag.Int("attach-retries", 3, "Number of attach retries at startup")
	flag.Int("pool-capacity", 1, "Maximum number of modem devices")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithFile(*configFile), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var logOut io.Writer = os.Stderr
	if config.LogFile != "" {
		logOut = &lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: logLevel}))

	engineConfig, err := at.NewConfigBuilder().
		WithATTimeout(config.ATTimeout).
		WithLogger(logger.With("component", "at")).
		WithDialer(at.SerialDialer{
			PortName: config.SerialPort,
			BaudRate: config.BaudRate,
		}).
		Build()
	if err != nil {
		logger.Error("Failed to create AT engine config", "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	engine, err := at.New(ctx, engineConfig)
	if err != nil {
		logger.Error("Failed to open modem", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := engine.Loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("AT engine stopped", "error", err)
		}
	}()

	// Notifications no adapter claimed.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case urc := <-engine.URC():
				logger.Debug("Unhandled URC", "line", urc)
			}
		}
	}()

	pool := cellular.NewPool(
		cellular.WithCapacity(config.PoolCapacity),
		cellular.WithLogger(logger.With("component", "cellular")),
	)

	modem, err := pool.Alloc(config.Chipset, engine)
	if err != nil {
		logger.Error("Failed to allocate modem", "chipset", config.Chipset, "available", cellular.Chipsets(), "error", err)
		os.Exit(1)
	}

	if err := attach(ctx, logger, modem, config.AttachRetries); err != nil {
		logger.Error("Failed to attach modem", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting cellular daemon", "chipset", config.Chipset, "device", modem.Base().ID)

	server := &Server{
		Logger: logger.With("component", "server"),
		Pool:   pool,
	}
	httpServer := &http.Server{
		Addr:    config.BindAddress,
		Handler: server,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Warn("Failed to notify systemd", "error", err)
	}

	// Wait for interrupt signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig)
	daemon.SdNotify(false, daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
	}

	logger.Info("Releasing modems")
	for _, c := range pool.List() {
		release(logger, server, pool, c)
	}

	logger.Info("Closing modem connection")
	stop()
	if err := engine.Close(); err != nil {
		logger.Error("Failed to close modem", "error", err)
		os.Exit(1)
	}
}

// attach tries to attach c, retrying up to retries more times. A modem that
// is still booting or autobauding often misses the first attempt.
func attach(ctx context.Context, logger *slog.Logger, c cellular.Cellular, retries int) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if err = c.Attach(ctx); err == nil {
			return nil
		}
		logger.Warn("Attach failed", "attempt", attempt+1, "error", err)
		if attempt == retries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return err
}

// release detaches and frees c, holding the device's lifecycle lock.
func release(logger *slog.Logger, server *Server, pool *cellular.Pool, c cellular.Cellular) {
	id := c.Base().ID
	unlock := server.Lock(id)
	defer unlock()

	if err := c.Detach(); err != nil {
		logger.Error("Failed to detach modem", "device", id, "error", err)
		return
	}
	if err := pool.Free(c); err != nil {
		logger.Error("Failed to free modem", "device", id, "error", err)
	}
}
