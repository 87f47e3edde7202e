package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

type banner struct{}

func (banner) JSON() string {
	return fmt.Sprintf(`{"app":"bstviz","version":%q}`, version)
}

func (banner) PlainText() string {
	return fmt.Sprintf(`
 _         _        _
| |__  ___| |___ __(_)___
| '_ \(_-<  _\ V /| |_ /
|_.__//__/\__|\_/ |_/__| %s
`, version)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bstviz [command] (flags)",
		Short:         "step through binary search tree algorithms",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newRunCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "bstviz %s\n", version)
			},
		},
	)
	return root
}

func main() {
	cobra.EnableCommandSorting = false
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bstviz: %v\n", err)
		os.Exit(1)
	}
}
