package main

import (
	"context"
	"os"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/tgrab-dl/tgrab/internal/config"
	"github.com/tgrab-dl/tgrab/internal/domain"
	"github.com/tgrab-dl/tgrab/internal/downloader"
	"github.com/tgrab-dl/tgrab/internal/filter"
	"github.com/tgrab-dl/tgrab/internal/logger"
	"github.com/tgrab-dl/tgrab/internal/resolver"
	"github.com/tgrab-dl/tgrab/internal/telegram"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tgrab",
		Short: "Download file attachments from Telegram channels",
		Long: `Downloads all messages from given Telegram channel IDs or channel name pattern.
It honours already downloaded files, and it should resume partial downloads but it does not.

Telegram API credentials can be read from environment variables or passed in as arguments.`,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			// Config is valid; from here on errors are runtime failures and
			// should not print usage.
			cmd.SilenceUsage = true
			return run(cmd.Context(), cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.New(os.Stderr, logger.FromVerbosity(cfg.Verbose))

	if err := os.MkdirAll(cfg.DestinationPath, 0755); err != nil {
		return err
	}

	log.Info("Run %s: will download/resume files from %s", ksuid.New().String(), cfg.DestinationPath)

	client, err := telegram.New(telegram.Options{
		APIID:       cfg.APIID,
		APIHash:     cfg.APIHash,
		SessionPath: cfg.SessionPath,
		Verbose:     cfg.Verbose,
	}, log)
	if err != nil {
		return err
	}

	return client.Run(ctx, func(ctx context.Context) error {
		return pipeline(ctx, client, cfg, log)
	})
}

// pipeline is the whole run: resolve groups, collect eligible messages, then
// hand the concatenated list to the batch scheduler.
func pipeline(ctx context.Context, client domain.Client, cfg *config.Config, log *logger.Logger) error {
	groups, err := resolver.New(client, log).Resolve(ctx, cfg.GroupIDs, cfg.GroupPattern)
	if err != nil {
		return err
	}
	log.Debug("Argument(s) correspond to %d group(s)", len(groups))

	flt := filter.New(client, log)

	var eligible []domain.EligibleMessage
	for _, group := range groups {
		log.Info("Getting messages from group %s", group.Name)

		msgs, err := flt.Eligible(ctx, group, cfg.DestinationPath)
		if err != nil {
			return err
		}

		log.Info("Found %d messages eligible to download", len(msgs))
		eligible = append(eligible, msgs...)
	}

	_, err = downloader.NewService(client, log).Run(ctx, eligible, cfg.BatchSize, cfg.DestinationPath)
	return err
}
