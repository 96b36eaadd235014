package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"vigil/internal/scope"
)

func newBlankCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blank [file]",
		Short: "Print a source file with comments and string contents blanked",
		Long:  "blank replaces comments and string literal contents with spaces, keeping every line and column in place. Reads stdin when no file or - is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				content []byte
				err     error
			)
			if len(args) == 0 || args[0] == "-" {
				content, err = io.ReadAll(cmd.InOrStdin())
			} else {
				content, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), scope.Blank(string(content)))
			return err
		},
	}
}
