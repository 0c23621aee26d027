package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Khanviph/tron1/multisig"
)

func NewSubmitCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "submit",
		Short: "Set a multi-signature permission on an account",
		Long:  "Replace the owner and active permissions of the target account with the given controllers and threshold",
		RunE:  runSubmit,
	}

	cmd.Flags().StringP("target", "t", "", "Account whose permissions are replaced (required)")
	cmd.Flags().StringSlice("controller", nil, "Controller address, repeat up to 5 times (required)")
	cmd.Flags().IntP("threshold", "n", 1, "Required signatures")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("controller")

	return cmd
}

func runSubmit(cmd *cobra.Command, args []string) error {
	target, _ := cmd.Flags().GetString("target")
	controllers, _ := cmd.Flags().GetStringSlice("controller")
	threshold, _ := cmd.Flags().GetInt("threshold")

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	locator, cleanup, err := newLocator(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	waiter := multisig.NewWaiter(locator,
		multisig.WithPollInterval(cfg.Waiter.Interval),
		multisig.WithMaxAttempts(cfg.Waiter.MaxAttempts),
		multisig.WithWaiterLogger(log.With("component", "waiter")),
	)
	ctl := multisig.NewController(waiter, multisig.WithLogger(log.With("component", "workflow")))

	if len(controllers) > multisig.MaxControllers {
		return fmt.Errorf("at most %d controllers are allowed, got %d", multisig.MaxControllers, len(controllers))
	}
	ctl.SetTarget(target)
	ctl.SetControllers(controllers)
	if got := ctl.SetThreshold(threshold); got != threshold {
		log.Warn("Threshold clamped", "requested", threshold, "used", got)
	}

	out := cmd.OutOrStdout()
	if err := ctl.Connect(ctx); err != nil {
		fmt.Fprintln(out, ctl.State().ErrorMessage)
		return err
	}

	err = ctl.Submit(ctx)
	state := ctl.State()
	if err != nil {
		fmt.Fprintln(out, state.ErrorMessage)
		return err
	}
	fmt.Fprintln(out, state.SuccessMessage)
	return nil
}
