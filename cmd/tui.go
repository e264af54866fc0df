package cmd

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"apiplay/internal/keys"
	"apiplay/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive playground",
	Long: `Start the interactive playground.

Keys:
  tab / shift+tab   move between fields
  ←/→               change the method
  enter             submit (ctrl+s from the body editor)
  esc               cancel the request in flight
  ctrl+c            quit

Logs go to log.file from the config, or nowhere.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, closeLog, err := newLogger(io.Discard)
		if err != nil {
			return withExit(ExitConfigError, err)
		}
		defer closeLog()

		ctrl, cleanup, err := newController(logger, nil)
		if err != nil {
			return err
		}
		defer cleanup()

		return tui.Run(ctrl, keys.NewBus(), tea.WithAltScreen())
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
