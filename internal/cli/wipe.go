package cli

import (
	"errors"

	"adaptive-quiz-service/internal/config"
	"adaptive-quiz-service/internal/logging"
	"github.com/spf13/cobra"
)

// NewWipeCmd deletes every engine key from the configured stores.
func NewWipeCmd(configPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete all sessions, users, exclusions and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to wipe without --yes")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.New(appName, cfg.Log.Env, cfg.Log.Level, cfg.Log.Format)
			if cfg.Redis.Addr == "" && cfg.Postgres.URL == "" {
				logger.Warn().Msg("no persistent stores configured, nothing to wipe")
				return nil
			}
			eng, err := buildEngine(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			defer eng.Close()
			return eng.service.Wipe(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the wipe")
	return cmd
}
