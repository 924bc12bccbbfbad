package main

import (
	"errors"
	"fmt"

	"agriconnect_back_end/internal/scheduler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func promoteOrdersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote-orders",
		Short: "Lance une promotion Shipped → Delivered immédiatement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			sched, err := a.deliveryScheduler()
			if err != nil {
				return err
			}
			err = sched.RunOnce(cmd.Context())
			if errors.Is(err, scheduler.ErrAlreadyRunning) {
				a.log.Warn("⏭️ Promotion déjà en cours sur un autre réplica")
				return nil
			}
			return err
		},
	}
}

func reconcileSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile-session <sessionId>",
		Short: "Crée la commande d'une session Stripe payée restée sans commande",
		Long: `Relit la session auprès de Stripe puis applique la même réconciliation
que le webhook. Sans effet si la commande existe déjà.

Exemple :
  server reconcile-session cs_live_a1b2c3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			ev, err := a.gateway.CompletedSession(ctx, args[0])
			if err != nil {
				return err
			}
			order, err := a.reconciler.Reconcile(ctx, ev)
			if err != nil {
				return err
			}

			a.log.Info("✅ Session réconciliée",
				zap.String("session_id", args[0]),
				zap.String("order_id", order.ID.Hex()),
				zap.String("total", order.TotalAmount.String()))
			fmt.Fprintln(cmd.OutOrStdout(), order.ID.Hex())
			return nil
		},
	}
}
