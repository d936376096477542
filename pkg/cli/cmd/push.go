package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rzbill/nak/internal/config"
	"github.com/rzbill/nak/pkg/artifact"
	"github.com/rzbill/nak/pkg/gateway"
	"github.com/rzbill/nak/pkg/log"
	"github.com/spf13/cobra"
)

// uploadField is the multipart field the API reads the artifact from.
const uploadField = "file"

func newPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload the latest build artifact",
		Long: `Push uploads the most recent artifact in .tmp to the app identified by
the stored client id. A rejected upload is reported but does not fail the
command.`,
		Example: `  nak push
  nak push -e production`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			return runPush(cmd.Context(), rt)
		},
	}
}

func runPush(ctx context.Context, rt *runtime) error {
	if err := rt.store.CheckPrerequisites(); err != nil {
		return err
	}
	if _, err := rt.store.Save(config.SaveOptions{
		Required: config.RequiredFields,
		Persist:  rt.persist,
	}); err != nil {
		return err
	}

	latest, err := artifact.SelectLatest(rt.outputDir())
	if err != nil {
		var noArtifact *artifact.NoBuildArtifactError
		if errors.As(err, &noArtifact) {
			noArtifact.Env = rt.store.Env()
		}
		return err
	}

	cfg := rt.store.Config()
	fileName := filepath.Base(latest)
	logger := rt.envLogger()
	logger.Infof("Pushing to app with client_id %s", cfg.ClientID)
	logger.Infof("with filename %s", fileName)
	logger.Infof("by username %s", cfg.Email)

	f, err := os.Open(latest)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	client := newUploader(gateway.Options{
		BaseURL:  rt.v.GetString(flagAPIURL),
		Email:    cfg.Email,
		Password: cfg.Password,
		ClientID: cfg.ClientID,
		Timeout:  rt.v.GetDuration(flagTimeout),
	}, rt.logger)

	_, err = client.UpdateApp(ctx, map[string]gateway.File{
		uploadField: {Name: fileName, Reader: f},
	})
	var uploadErr *gateway.UploadError
	if errors.As(err, &uploadErr) {
		logger.Error(uploadErr.Error(), log.Int("status", uploadErr.StatusCode))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to push %s: %w", fileName, err)
	}

	logger.Info("Push update file to app successfully.")
	return nil
}
