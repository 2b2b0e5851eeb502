package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pkgsource/internal/adapters"
	"pkgsource/internal/app"
)

func newAppService() app.Service {
	service := app.NewService()
	service.Concurrency = viper.GetInt("concurrency")
	service.RemoteReader = adapters.NewRemoteIndexReader(adapters.RemoteIndexConfig{
		User:         viper.GetString("http_user"),
		APIKey:       viper.GetString("http_api_key"),
		TimeoutSec:   viper.GetInt("http_timeout"),
		Retries:      viper.GetInt("http_retries"),
		RetryDelayMs: viper.GetInt("http_retry_delay_ms"),
	})
	return service
}

func configuredRepos() []string {
	return viper.GetStringSlice("repos")
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

func resolveStrings(cmd *cobra.Command, values []string, key string, flagName string) []string {
	if cmd == nil {
		if len(values) > 0 {
			return values
		}
		return viper.GetStringSlice(key)
	}
	if flagChanged(cmd, flagName) {
		return values
	}
	return viper.GetStringSlice(key)
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
