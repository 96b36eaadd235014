package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vigil/internal/lsp"
	"vigil/internal/store"
	"vigil/internal/version"
)

func newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Run the vigil language server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runLSP,
	}
}

func runLSP(cmd *cobra.Command, _ []string) error {
	sess, cleanup, err := startSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	st := store.New(store.Options{Factory: sess.cfg.Factory(), Tracer: sess.tracer})
	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Store:   st,
		Levels:  sess.cfg.Levels(),
		Tracer:  sess.tracer,
		Version: version.Version,
	})
	sess.heartbeat.SetStatus(server.Status)
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
