package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pdfrag/internal/logging"
	"pdfrag/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [file.pdf]",
	Short: "Open the interactive terminal UI",
	Long:  `Open the terminal UI. When a PDF path is given it is uploaded on start; otherwise the UI asks for one.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		// The alternate screen owns the terminal; keep logs to the log file.
		log := logger
		if cfg.Logging.File == "" {
			log = logging.Discard()
		}
		svc, err := newService(cfg, log)
		if err != nil {
			return err
		}
		var path string
		if len(args) == 1 {
			path = args[0]
		}
		p := tea.NewProgram(tui.New(svc, tui.OpenPDF, path, log), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
