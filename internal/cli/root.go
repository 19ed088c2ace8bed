package cli

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/edulive/classmesh/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "classmesh",
	Short: "Live classroom client: mesh conferencing over a signaling relay",
	Long: `ClassMesh joins a named classroom through a signaling relay and maintains a
direct media connection to every other participant (mesh topology). It tracks
presence, relays chat, and supports mute, camera toggle and screen sharing.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
