// Command weaveserver is a generalization of the teacher's cmd/demo/demo.go
// for the weave core: a small collaboration server holding one named
// document per site, plus offline fork/inspect utilities for working with
// serialized weaves outside a running server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "weaveserver",
	Short: "Serve and inspect causal tree weave documents",
}

func init() {
	rootCmd.PersistentFlags().Int("port", 8009, "port to run the server on")
	rootCmd.PersistentFlags().Bool("debug", false, "whether to dump debug information")
	rootCmd.PersistentFlags().String("debug-file", "", "file to dump debug information in JSONL format; implies --debug")
	rootCmd.PersistentFlags().String("static-dir", "", "directory with static files to serve at /")

	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("debug_file", rootCmd.PersistentFlags().Lookup("debug-file"))
	viper.BindPFlag("static_dir", rootCmd.PersistentFlags().Lookup("static-dir"))

	viper.SetEnvPrefix("WEAVESERVER")
	viper.AutomaticEnv()

	viper.SetConfigName("weaveserver")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.weaveserver")
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			fmt.Fprintf(os.Stderr, "weaveserver: %v\n", err)
		}
	}

	rootCmd.AddCommand(serveCmd, forkCmd, inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
