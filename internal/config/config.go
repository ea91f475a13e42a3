package config

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Env variables holding the Telegram API credentials when the flags are not
// passed explicitly.
const (
	EnvAPIID   = "TELEGRAM_APP_API_ID"
	EnvAPIHash = "TELEGRAM_APP_API_HASH"
)

type Config struct {
	DestinationPath string
	Verbose         int
	BatchSize       int
	APIID           int
	APIHash         string
	GroupIDs        []int64
	GroupPattern    string
	SessionPath     string
}

// RegisterFlags declares every CLI flag on the given set. Shared between the
// root command and the config tests.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("destination-path", "p", "media", "File output path")
	flags.CountP("verbose", "v", "Display verbose outputs")
	flags.IntP("batch-size", "b", 3, "Number of download tasks to run simultaneously")
	flags.Int("api-id", 0, "Telegram API ID (default from "+EnvAPIID+")")
	flags.String("api-hash", "", "Telegram API hash (default from "+EnvAPIHash+")")
	flags.Int64SliceP("group-ids", "i", nil, "List of telegram group IDs")
	flags.StringP("group-pattern", "g", "", "Group name pattern to look for")
	flags.String("session", "tgrab.session", "Path of the Telegram session file")
}

// Load merges flag values with the credential environment variables and
// validates the result. It performs no network activity.
func Load(flags *pflag.FlagSet) (*Config, error) {
	// Only the credentials go through viper: a set flag wins, otherwise the
	// environment variable is used.
	v := viper.New()
	if err := v.BindPFlag("api-id", flags.Lookup("api-id")); err != nil {
		return nil, err
	}
	if err := v.BindPFlag("api-hash", flags.Lookup("api-hash")); err != nil {
		return nil, err
	}
	if err := v.BindEnv("api-id", EnvAPIID); err != nil {
		return nil, err
	}
	if err := v.BindEnv("api-hash", EnvAPIHash); err != nil {
		return nil, err
	}

	destination, _ := flags.GetString("destination-path")
	verbose, _ := flags.GetCount("verbose")
	batchSize, _ := flags.GetInt("batch-size")
	groupIDs, _ := flags.GetInt64Slice("group-ids")
	pattern, _ := flags.GetString("group-pattern")
	sessionPath, _ := flags.GetString("session")

	cfg := &Config{
		DestinationPath: destination,
		Verbose:         verbose,
		BatchSize:       batchSize,
		APIID:           v.GetInt("api-id"),
		APIHash:         v.GetString("api-hash"),
		GroupIDs:        groupIDs,
		GroupPattern:    pattern,
		SessionPath:     sessionPath,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIID == 0 {
		return fmt.Errorf("api-id is required (flag --api-id or env %s)", EnvAPIID)
	}

	if c.APIHash == "" {
		return fmt.Errorf("api-hash is required (flag --api-hash or env %s)", EnvAPIHash)
	}

	if len(c.GroupIDs) == 0 && c.GroupPattern == "" {
		return errors.New("one of --group-ids or --group-pattern is required")
	}

	if len(c.GroupIDs) > 0 && c.GroupPattern != "" {
		return errors.New("--group-ids and --group-pattern are mutually exclusive")
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("batch-size must be at least 1, got %d", c.BatchSize)
	}

	if c.DestinationPath == "" {
		c.DestinationPath = "media"
	}

	return nil
}
