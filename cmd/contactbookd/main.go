// Command contactbookd serves a contact book over HTTP.
//
// Configuration comes from flags, a config file (--config, default
// $HOME/.contactbookd.yaml) and CONTACTBOOK_* environment variables, in that
// order of precedence. Dotted flags map to underscored variables, e.g.
// --store.backend is CONTACTBOOK_STORE_BACKEND.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hupe1980/contactbook"
	"github.com/hupe1980/contactbook/metric/prom"
	"github.com/hupe1980/contactbook/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	buildVersion   = "unknown"
	cfgFile        string
	envPrefix      = "CONTACTBOOK"
	defaultCfgName = ".contactbookd"
	opts           options
)

type options struct {
	LogLevel  string
	LogFormat string
	Listen    string
	PageSize  int

	AuthTokens []string
	RateLimit  float64
	RateBurst  int

	Store storeOptions
}

var rootCmd = &cobra.Command{
	Use:          "contactbookd",
	Short:        "Serve a searchable contact book over HTTP",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

// initConfig reads the config file and environment and applies them to
// flags the user did not set.
func initConfig() {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(defaultCfgName)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfgErr := v.ReadInConfig()

	bindFlags(rootCmd, v)

	var notFound viper.ConfigFileNotFoundError
	if cfgErr != nil && (cfgFile != "" || !errors.As(cfgErr, &notFound)) {
		fmt.Fprintf(os.Stderr, "read config: %v\n", cfgErr)
	}
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			switch val := val.(type) {
			case []any:
				for _, item := range val {
					_ = cmd.Flags().Set(f.Name, fmt.Sprintf("%v", item))
				}
			case []string:
				_ = cmd.Flags().Set(f.Name, strings.Join(val, ","))
			default:
				_ = cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
			}
		}
	})
}

func initFlags() {
	cobra.OnInitialize(initConfig)

	fl := rootCmd.Flags()
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default is $HOME/%s.yaml)", defaultCfgName))
	fl.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fl.StringVar(&opts.LogFormat, "log-format", "text", "Log format: text or json")
	fl.StringVar(&opts.Listen, "listen", ":8080", "HTTP listen address")
	fl.IntVar(&opts.PageSize, "page-size", 10, "Contacts per page")

	fl.StringSliceVar(&opts.AuthTokens, "auth.tokens", nil, "Accepted bearer tokens (default: authentication disabled)")
	fl.Float64Var(&opts.RateLimit, "rate.limit", 0, "Requests per second across all clients (default: unlimited)")
	fl.IntVar(&opts.RateBurst, "rate.burst", 20, "Request burst above rate.limit")

	fl.StringVar(&opts.Store.Backend, "store.backend", "memory", "Record store: memory, local, s3, minio, dynamodb")
	fl.StringVar(&opts.Store.Path, "store.path", "./data", "Snapshot directory for the local backend")
	fl.StringVar(&opts.Store.Bucket, "store.bucket", "", "Bucket for the s3 and minio backends")
	fl.StringVar(&opts.Store.Prefix, "store.prefix", "contactbook/", "Key prefix for the s3 and minio backends")
	fl.StringVar(&opts.Store.Table, "store.table", "contacts", "Table for the dynamodb backend")
	fl.StringVar(&opts.Store.Codec, "store.codec", "go-json", "Snapshot codec: json, go-json")
	fl.StringVar(&opts.Store.Compression, "store.compression", "zstd", "Snapshot compression: none, zstd, lz4")
	fl.StringVar(&opts.Store.MinIO.Endpoint, "minio.endpoint", "localhost:9000", "MinIO endpoint")
	fl.StringVar(&opts.Store.MinIO.AccessKey, "minio.access-key", "", "MinIO access key")
	fl.StringVar(&opts.Store.MinIO.SecretKey, "minio.secret-key", "", "MinIO secret key")
	fl.BoolVar(&opts.Store.MinIO.Secure, "minio.secure", false, "Use TLS for MinIO")
}

func main() {
	initFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newLogger(level, format string) (*contactbook.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	switch format {
	case "text", "":
		return contactbook.NewTextLogger(l), nil
	case "json":
		return contactbook.NewJSONLogger(l), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

func run(ctx context.Context) error {
	logger, err := newLogger(opts.LogLevel, opts.LogFormat)
	if err != nil {
		return err
	}
	logger.Info("starting contactbookd", "version", buildVersion, "backend", opts.Store.Backend, "listen", opts.Listen)

	st, release, err := openStore(ctx, opts.Store, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer release()

	book, err := contactbook.Open(ctx, st,
		contactbook.WithLogger(logger),
		contactbook.WithMetricsCollector(prom.NewCollector(prometheus.DefaultRegisterer)),
		contactbook.WithPageSize(opts.PageSize),
	)
	if err != nil {
		_ = st.Close()
		logger.Error("failed to open contact book", "error", err)
		return err
	}
	defer func() {
		if err := book.Close(); err != nil {
			logger.Error("failed to close contact book", "error", err)
		}
	}()

	srv := server.New(book, server.Config{
		Addr:      opts.Listen,
		Tokens:    opts.AuthTokens,
		RateLimit: opts.RateLimit,
		RateBurst: opts.RateBurst,
		Gatherer:  prometheus.DefaultGatherer,
		Logger:    logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "error", err)
		return err
	}
	return nil
}
