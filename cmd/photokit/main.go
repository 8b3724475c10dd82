// Command photokit renders photos through the photokit pipeline from the
// command line.
//
//	photokit render -i in.jpg -o out.png --width 800 --height 800 --shape circle
//	photokit backends
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gogpu/photokit"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	_ "github.com/gogpu/photokit/gpu" // registers the "gpu" backend
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "photokit",
	Short: "Render photos through a pan/zoom transform and shape mask",
	Long: `photokit renders a photo onto a fixed-size frame the way the interactive
editor does: fit-center projection, canvas pan and zoom, and an optional
circle or square mask. The frame is captured and written as PNG or JPEG.

Examples:
  photokit render -i in.jpg -o out.png --shape circle
  photokit render -i in.jpg -o out.jpg --scale 2 --tx 0.1
  photokit backends`,
	Version:       photokit.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		photokit.SetLogger(newLogger(cmd.ErrOrStderr(), verbose))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger returns a text logger for terminals and a JSON logger otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if isTerminal(w) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit int
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
