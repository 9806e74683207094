package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pdfrag/internal/extractor"
	"pdfrag/internal/service"
)

var (
	routeLabel = color.New(color.FgCyan, color.Bold).SprintFunc()
	failLabel  = color.New(color.FgRed).SprintFunc()
	infoLabel  = color.New(color.FgHiBlack).SprintFunc()
)

var askCmd = &cobra.Command{
	Use:   "ask <file.pdf> <question...>",
	Short: "Upload a PDF and answer one question",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, err := newService(GetConfig(), logger)
		if err != nil {
			return err
		}
		return runAsk(ctx, svc, cmd.OutOrStdout(), args[0], strings.Join(args[1:], " "))
	},
}

type asker interface {
	CreateSession(ctx context.Context, src extractor.PageSource, name string) (*service.Session, error)
	Ask(ctx context.Context, sess *service.Session, query string, emit func(service.Update) error) error
}

func runAsk(ctx context.Context, svc asker, out io.Writer, path, question string) error {
	doc, err := extractor.OpenPDF(path)
	if err != nil {
		fmt.Fprintln(out, failLabel(service.CreationFailedMessage))
		return err
	}
	defer doc.Close()

	sess, err := svc.CreateSession(ctx, doc, filepath.Base(path))
	if err != nil {
		fmt.Fprintln(out, failLabel(service.CreationFailedMessage))
		return err
	}
	defer sess.Close(context.Background())
	fmt.Fprintln(out, infoLabel(fmt.Sprintf("%s: %d pages, %d chunks", sess.Name, sess.Pages, sess.Chunks)))

	printed := false
	err = svc.Ask(ctx, sess, question, func(u service.Update) error {
		if !printed && u.Choice != "" {
			fmt.Fprintf(out, "%s\n", routeLabel("["+u.Choice+"]"))
			printed = true
		}
		switch {
		case u.Text != "":
			fmt.Fprintln(out)
			fmt.Fprintln(out, failLabel(u.Text))
		case u.Done:
			fmt.Fprintln(out)
		default:
			fmt.Fprint(out, u.Fragment)
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func init() {
	rootCmd.AddCommand(askCmd)
}
