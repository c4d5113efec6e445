package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/esimov/svgico"
	"github.com/esimov/svgico/utils"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const HelpBanner = `
┌─┐┬  ┬┌─┐┬┌─┐┌─┐
└─┐└┐┌┘│ ┬││  │ │
└─┘ └┘ └─┘┴└─┘└─┘

SVG to ICO icon compiler.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

type loggerKey struct{}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "svgico",
		Short:         "Compile SVG images into multi resolution ICO files",
		Long:          fmt.Sprintf(HelpBanner, Version),
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
				ReportTimestamp: true,
				TimeFormat:      "15:04:05.00",
				Level:           level,
			})
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newIcoCmd())
	root.AddCommand(newPngCmd())
	root.AddCommand(newBuildCmd())
	root.AddCommand(newInspectCmd())
	return root
}

// loggerFrom returns the logger set up by the root command.
func loggerFrom(cmd *cobra.Command) *log.Logger {
	if l, ok := cmd.Context().Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.New(io.Discard)
}

// newCompiler builds a compiler reporting to the command logger. The
// entries are only listed in verbose mode, otherwise a spinner is shown.
func newCompiler(cmd *cobra.Command) *svgico.Compiler {
	logger := loggerFrom(cmd)
	if logger.GetLevel() > log.DebugLevel {
		logger = log.New(io.Discard)
	}
	return svgico.NewCompiler(svgico.WithLogger(logger))
}

// withSpinner runs fn while the progress indicator is shown on a terminal.
func withSpinner(cmd *cobra.Command, msg string, fn func() error) error {
	stderr := cmd.ErrOrStderr()
	f, ok := stderr.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) || loggerFrom(cmd).GetLevel() <= log.DebugLevel {
		return fn()
	}

	text := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ SVGICO", utils.StatusMessage),
		utils.DecorateText(msg, utils.DefaultMessage))
	spinner := utils.NewSpinner(stderr, text, time.Millisecond*200, true)

	// Capture CTRL-C signal and restore the cursor visibility back.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalChan)
	go func() {
		if _, ok := <-signalChan; ok {
			spinner.RestoreCursor()
			os.Exit(1)
		}
	}()

	now := time.Now()
	spinner.Start()
	err := fn()
	if err == nil {
		spinner.StopMsg = fmt.Sprintf("%s %s %s\n",
			utils.DecorateText("⚡ SVGICO", utils.StatusMessage),
			utils.DecorateText(msg+" ✔", utils.DefaultMessage),
			utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	}
	spinner.Stop()
	return err
}

// printError reports the failing entry and the kind of the failure.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n\t%s\n",
		utils.DecorateText("Error: "+errorKind(err), utils.ErrorMessage),
		utils.DecorateText(err.Error(), utils.DefaultMessage),
	)
}
