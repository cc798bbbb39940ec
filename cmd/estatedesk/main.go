package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/estatedesk/internal/api"
	"github.com/erazemk/estatedesk/internal/auth"
	"github.com/erazemk/estatedesk/internal/config"
	"github.com/erazemk/estatedesk/internal/docstore"
	"github.com/erazemk/estatedesk/internal/logging"
	"github.com/erazemk/estatedesk/internal/notify"
	"github.com/erazemk/estatedesk/internal/store"
)

const usage = `Usage: estatedesk [command] [flags]

Commands:
  serve    run the HTTP API (default)
  init     create the admin account and exit
  seed     load demo content from a YAML file

Flags:
  -addr <host:port>    listen address (env ADDR, default :8080)
  -db <path>           SQLite database path (env SQLITE_PATH)
  -driver <name>       store driver: sqlite or mongo (env STORE_DRIVER)
  -log <path>          rotating JSON log file (env LOG_FILE)
  -admin <email>       admin email on first run (default: admin@estatedesk.local)
  -file <path>         seed file (seed only)
  -h, -help            show this help and exit
`

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

func main() {
	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = run(args, cmdServe)
	case "init":
		err = run(args, cmdInit)
	case "seed":
		err = run(args, cmdSeed)
	case "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", cmd, usage)
		os.Exit(1)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("fatal", "command", cmd, "error", err)
		os.Exit(1)
	}
}

// options are the parsed command line on top of the environment.
type options struct {
	cfg       *config.Config
	adminUser string
	seedFile  string
}

type command func(ctx context.Context, opts *options) error

// run loads configuration, applies flags, sets up logging and runs cmd
// until SIGINT/SIGTERM.
func run(args []string, cmd command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	opts, err := parseFlags(args, cfg)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	closeLog, err := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cmd(ctx, opts)
}

func parseFlags(args []string, cfg *config.Config) (*options, error) {
	opts := &options{cfg: cfg}

	fs := flag.NewFlagSet("estatedesk", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.SQLitePath, "db", cfg.SQLitePath, "")
	fs.StringVar(&cfg.StoreDriver, "driver", cfg.StoreDriver, "")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "")
	fs.StringVar(&opts.adminUser, "admin", "admin@estatedesk.local", "")
	fs.StringVar(&opts.seedFile, "file", "", "")
	fs.Usage = func() { fmt.Fprint(os.Stdout, usage) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return opts, nil
}

// openStore connects the configured backend and ensures all collections.
func openStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	var (
		ds  docstore.Store
		err error
	)
	switch cfg.StoreDriver {
	case config.DriverMongo:
		ds, err = docstore.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		ds, err = docstore.OpenSQLite(cfg.SQLitePath)
	}
	if err != nil {
		return nil, err
	}

	if err := ds.Ensure(ctx, store.Collections()...); err != nil {
		ds.Close(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ensuring collections: %w", err)
	}

	slog.Info("store ready", "driver", cfg.StoreDriver)
	return ds, nil
}

func cmdServe(ctx context.Context, opts *options) error {
	cfg := opts.cfg

	ds, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		slog.Info("closing store")
		if err := ds.Close(context.Background()); err != nil {
			slog.Error("closing store", "error", err)
		}
	}()

	hub := notify.NewHub(notify.DefaultBuffer)
	defer hub.Close()

	// With a broker, writes go to the exchange and come back through the
	// relay, so every replica's hub sees them.
	var pub notify.Publisher = hub
	var broker *notify.AMQP
	if cfg.AMQPURL != "" {
		broker, err = notify.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer broker.Close()
		pub = broker
	}

	st := store.New(ds, pub)

	if err := bootstrapAdmin(ctx, st, opts.adminUser, os.Stdout); err != nil {
		return err
	}

	secret := cfg.JWTSecret
	if secret == "" {
		// Persisted so tokens survive restarts.
		if secret, err = st.Tokens.JWTSecret(ctx); err != nil {
			return fmt.Errorf("loading JWT secret: %w", err)
		}
	}

	handler := api.NewRouter(api.Options{
		Store:       st,
		Issuer:      auth.NewIssuer(secret, cfg.TokenTTL),
		Hub:         hub,
		Production:  cfg.IsProduction(),
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server started", "addr", cfg.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})

	if broker != nil {
		g.Go(func() error {
			return broker.Relay(gctx, hub)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")

		// Closing the hub ends open event streams.
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
			return err
		}
		return nil
	})

	err = g.Wait()
	slog.Info("server stopped")
	return err
}

func cmdInit(ctx context.Context, opts *options) error {
	ds, err := openStore(ctx, opts.cfg)
	if err != nil {
		return err
	}
	defer ds.Close(context.Background())

	st := store.New(ds, nil)
	n, err := st.Users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return errors.New("store already has users; nothing to do")
	}
	return bootstrapAdmin(ctx, st, opts.adminUser, os.Stdout)
}

func cmdSeed(ctx context.Context, opts *options) error {
	if opts.seedFile == "" {
		return errors.New("seed requires -file")
	}
	f, err := os.Open(opts.seedFile)
	if err != nil {
		return fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()

	ds, err := openStore(ctx, opts.cfg)
	if err != nil {
		return err
	}
	defer ds.Close(context.Background())

	stats, err := seed(ctx, store.New(ds, nil), f)
	if err != nil {
		return err
	}
	slog.Info("seed complete",
		"properties", stats.Properties,
		"posts", stats.Posts,
		"team", stats.Team,
		"slides", stats.Slides,
		"skipped", stats.Skipped,
	)
	return nil
}

// bootstrapAdmin creates an admin with a generated password when the store
// has no users yet.
func bootstrapAdmin(ctx context.Context, st *store.Store, email string, out io.Writer) error {
	n, err := st.Users.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		return nil
	}

	password, err := generatePassword(16)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := st.Users.CreateFirst(ctx, email, "Administrator", string(hash))
	if errors.Is(err, store.ErrBootstrapClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	printInitResult(out, user.Email, password)
	return nil
}

// printInitResult prints the generated admin credentials.
func printInitResult(out io.Writer, email, password string) {
	fmt.Fprintln(out, "Admin account created:")
	fmt.Fprintf(out, "  Email:    %s\n", email)
	fmt.Fprintf(out, "  Password: %s\n", password)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Save this password, it cannot be recovered.")
	fmt.Fprintln(out, "Change it after logging in.")
	fmt.Fprintln(out)
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
