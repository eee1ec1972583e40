package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/payment-desk/constants"
	"github.com/joseph-ayodele/payment-desk/internal/codec"
	"github.com/joseph-ayodele/payment-desk/internal/common"
	"github.com/joseph-ayodele/payment-desk/internal/utils"
)

func lookupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup [payment_id]",
		Short: "Print a stored receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			repo, cleanup, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := repo.Find(ctx, args[0])
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("receipt %s not found", args[0])
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), codec.Serialize([]codec.Field{
				{Key: constants.FieldPaymentID, Value: rec.PaymentID},
				{Key: constants.FieldAmount, Value: utils.FormatAmount(rec.Amount)},
				{Key: constants.FieldCard, Value: rec.MaskedCard},
				{Key: "TIMESTAMP", Value: utils.FormatTimestamp(rec.Timestamp)},
			}))
			return nil
		},
	}
}
