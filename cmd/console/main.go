package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	// Контекст жизненного цикла: SIGINT/SIGTERM отменяет его во всех подкомандах
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "console",
		Short:         "Multi-tenant workforce admin console API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default ./config.yaml or ./configs/config.yaml)")

	root.AddCommand(
		newServeCmd(&cfgPath),
		newWarmupCmd(&cfgPath),
		newExportEmployeesCmd(&cfgPath),
	)
	return root
}
