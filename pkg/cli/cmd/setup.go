package cmd

import (
	"github.com/rzbill/nak/internal/config"
	"github.com/spf13/cobra"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Store credentials and the app client id",
		Long: `Setup validates the user email, password and client id and stores them
for the selected environment. Files are only rewritten when their content
changes.`,
		Example: `  nak setup -u dev@example.com -p secret -c ABCD1234
  nak setup -e production -c EFGH5678 -u ops@example.com -p secret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			return runSetup(rt)
		},
	}
}

func runSetup(rt *runtime) error {
	if _, err := rt.store.Save(config.SaveOptions{
		Required: config.RequiredFields,
		Persist:  true,
	}); err != nil {
		return err
	}

	clientID := rt.store.Config().ClientID
	rt.envLogger().Infof("App with client_id[%s] has been setup successfully.", clientID)
	return nil
}
