package cmd

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/rzbill/nak/internal/config"
	"github.com/rzbill/nak/pkg/artifact"
	"github.com/rzbill/nak/pkg/log"
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Package the project into a zip artifact",
		Long: `Build packages the content and media files of the project directory into
.tmp/<app>-<timestamp>.zip. Credentials passed as flags are stored first.

Paths listed in .nakignore are left out of the archive.`,
		Example: `  nak build
  nak build --dir ./themes/shop --no-progress`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			_, err = runBuild(rt, showProgress(cmd, rt))
			return err
		},
	}
}

// runBuild returns the path of the written artifact.
func runBuild(rt *runtime, progress bool) (string, error) {
	if err := rt.store.CheckPrerequisites(); err != nil {
		return "", err
	}
	if _, err := rt.store.Save(config.SaveOptions{Persist: rt.persist}); err != nil {
		return "", err
	}

	appName := rt.appName()
	logger := rt.envLogger()
	opts := []artifact.BuilderOption{}
	var bar *progressBar
	if progress {
		bar = &progressBar{title: fmt.Sprintf("[%s] Progress:", rt.store.Env())}
		opts = append(opts, artifact.WithProgress(bar.update))
	}

	path, err := artifact.NewBuilder(rt.logger, opts...).Build(rt.dir, rt.outputDir(), appName)
	if bar != nil {
		bar.stop()
	}
	if err != nil {
		return "", fmt.Errorf("failed to build %s: %w", appName, err)
	}

	logger.Info("Build successfully.", log.Str("file", path))
	return path, nil
}

func showProgress(cmd *cobra.Command, rt *runtime) bool {
	if rt.v.GetBool(flagNoProgress) {
		return false
	}
	return cmd.OutOrStdout() == os.Stdout && isTerminal(os.Stdout)
}

// progressBar starts a pterm bar once the file count is known.
type progressBar struct {
	title string
	bar   *pterm.ProgressbarPrinter
}

func (p *progressBar) update(done, total int, file string) {
	if p.bar == nil {
		bar, err := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle(p.title).
			WithRemoveWhenDone(true).
			Start()
		if err != nil {
			return
		}
		p.bar = bar
	}
	p.bar.UpdateTitle(fmt.Sprintf("%s %s", p.title, file))
	p.bar.Increment()
}

func (p *progressBar) stop() {
	if p.bar != nil {
		p.bar.Stop()
	}
}
