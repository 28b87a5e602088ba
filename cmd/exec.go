package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evsched/evsched/app"
	"github.com/evsched/evsched/config"
	"github.com/evsched/evsched/core/model"
	"github.com/evsched/evsched/infra/logger"
)

var (
	execCommand string
	execValue   float64
)

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run a single vehicle command and exit",
	RunE:  execOne,
}

func init() {
	execCmd.Flags().StringVar(&execCommand, "command", "", "command name (charge_on, hvac_off, ...)")
	execCmd.Flags().Float64Var(&execValue, "value", 0, "command value (charge target or temperature)")
	rootCmd.AddCommand(execCmd)
}

func execOne(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, ok := model.CommandFromString(execCommand)
	if !ok {
		return fmt.Errorf("unknown command %q", execCommand)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("exec").Errorf("service close: %v", err)
		}
	}()

	svc.Engine.RunCommand(ctx, c, execValue, nil)
	if entry, ok := svc.Activity.Latest(); ok {
		fmt.Println(entry.Text)
	}
	return nil
}
