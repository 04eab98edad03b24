package main

import (
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const configFlag = "config"

var commonFlags = map[string]cobraflags.Flag{
	configFlag: &cobraflags.StringFlag{
		Name:  configFlag,
		Value: "",
		Usage: "Optional config file (yaml, toml or json); environment variables override it",
	},
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "community-hub",
		Short:         "Community Hub API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
