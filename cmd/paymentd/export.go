package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zoobzio/clockz"

	"github.com/joseph-ayodele/payment-desk/internal/export"
	"github.com/joseph-ayodele/payment-desk/internal/utils"
)

func exportCmd(configPath *string) *cobra.Command {
	var out, from, to string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored receipts to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromDate, err := optionalDate("from", from)
			if err != nil {
				return err
			}
			toDate, err := optionalDate("to", to)
			if err != nil {
				return err
			}

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

			data, err := export.NewService(repo, clockz.RealClock, logger).ExportReceiptsXLSX(ctx, fromDate, toDate)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output .xlsx path")
	cmd.Flags().StringVar(&from, "from", "", "First day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day to include (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func optionalDate(flag, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := utils.ParseYMD(v)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	return &t, nil
}
