package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "PKGSOURCE"

type RootConfig struct {
	ConfigFile       string
	LogLevel         string
	Repos            []string
	Concurrency      int
	HTTPUser         string
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
}

func Execute() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:     "pkgsource",
		Short:   "Query and edit package metadata across many repositories",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log_level"))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	cmd.PersistentFlags().StringSliceVar(&cfg.Repos, "repo", nil, "Repository index file, directory, URL or database (sqlite:<path>, postgres://...) (repeatable, highest priority first)")
	cmd.PersistentFlags().IntVar(&cfg.Concurrency, "concurrency", 1, "Concurrent repository queries (1 = sequential)")
	cmd.PersistentFlags().StringVar(&cfg.HTTPUser, "http-user", "", "Basic auth user for remote indexes (api key is read from PKGSOURCE_HTTP_API_KEY)")
	cmd.PersistentFlags().IntVar(&cfg.HTTPTimeoutSec, "http-timeout", 60, "Remote index request timeout in seconds")
	cmd.PersistentFlags().IntVar(&cfg.HTTPRetries, "http-retries", 3, "Remote index request attempts")
	cmd.PersistentFlags().IntVar(&cfg.HTTPRetryDelayMs, "http-retry-delay-ms", 200, "Base delay between remote index retries")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("repos", cmd.PersistentFlags().Lookup("repo"))
	_ = viper.BindPFlag("concurrency", cmd.PersistentFlags().Lookup("concurrency"))
	_ = viper.BindPFlag("http_user", cmd.PersistentFlags().Lookup("http-user"))
	_ = viper.BindPFlag("http_timeout", cmd.PersistentFlags().Lookup("http-timeout"))
	_ = viper.BindPFlag("http_retries", cmd.PersistentFlags().Lookup("http-retries"))
	_ = viper.BindPFlag("http_retry_delay_ms", cmd.PersistentFlags().Lookup("http-retry-delay-ms"))

	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newSearchCommand())
	cmd.AddCommand(newProvidersCommand())
	cmd.AddCommand(newStatsCommand())
	cmd.AddCommand(newLoadCommand())
	cmd.AddCommand(newRemoveCommand())
	cmd.AddCommand(newExportCommand())
	return cmd
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("pkgsource")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/pkgsource")
	if err := viper.ReadInConfig(); err != nil {
		return nil
	}
	return nil
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func exitCodeForError(err error) int {
	code := errbuilder.CodeOf(err)
	message := errorMessage(err)
	switch code {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists:
		return 2
	case errbuilder.CodeFailedPrecondition, errbuilder.CodePermissionDenied:
		return 3
	case errbuilder.CodeNotFound:
		if strings.HasPrefix(message, "package not found") {
			return 4
		}
		return 5
	case errbuilder.CodeInternal:
		return 5
	default:
		return 1
	}
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
