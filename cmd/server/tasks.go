package main

import (
	"errors"
	"time"

	"github.com/projektfire/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPublishCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "publish-scheduled",
		Short: "Publish every scheduled article whose time has come, once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(v)
			if err != nil {
				return err
			}
			defer a.close()

			count, err := service.NewArticleService(a.db).PublishScheduled(commandContext(cmd), time.Now().UTC())
			if err != nil {
				return err
			}
			a.log.Info().Int("published", count).Msg("scheduled publish sweep finished")
			return nil
		},
	}
}

func newEnsureAdminCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-admin",
		Short: "Create the ADMIN_USERNAME account or reset its password to ADMIN_PASSWORD",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := bootstrap(v)
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.AdminPassword == "" {
				return errors.New("ADMIN_PASSWORD is empty")
			}
			return a.ensureAdmin()
		},
	}
}

func newSeedCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the admin account, sample categories, tags and the o-mnie page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(v)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.ensureAdmin(); err != nil {
				return err
			}
			result, err := service.NewSeedService(a.db).Run(commandContext(cmd))
			if err != nil {
				return err
			}
			a.log.Info().
				Int("categories", result.Categories).
				Int("tags", result.Tags).
				Int("pages", result.Pages).
				Msg("seed finished")
			return nil
		},
	}
}
