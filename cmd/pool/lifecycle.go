package main

import (
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fixedpool/internal/model"
	"fixedpool/internal/pool"
)

func runInit(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	e, err := newEnv(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	caller, err := e.authority()
	if err != nil {
		return err
	}
	quoteMint, err := pubkeyFlag(cmd, "quote")
	if err != nil {
		return err
	}
	baseMint, err := pubkeyFlag(cmd, "base")
	if err != nil {
		return err
	}
	rate, _ := cmd.Flags().GetUint32("rate")

	record, err := e.engine.Init(ctx, caller, baseMint, quoteMint, rate)
	if err != nil {
		return err
	}

	if e.pg != nil {
		if err := e.pg.UpsertPools(ctx, []model.Pool{record}); err != nil {
			e.logger.Warn("pool upsert failed", zap.Error(err))
		}
	}

	return e.save()
}

func runAddLiquidity(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	e, err := newEnv(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	caller, err := e.authority()
	if err != nil {
		return err
	}
	quoteMint, err := pubkeyFlag(cmd, "quote")
	if err != nil {
		return err
	}
	baseAmount, _ := cmd.Flags().GetUint64("base-amount")
	quoteAmount, _ := cmd.Flags().GetUint64("quote-amount")

	if err := e.engine.AddLiquidity(ctx, caller, quoteMint, baseAmount, quoteAmount); err != nil {
		return err
	}

	return e.save()
}

func runSwap(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	e, err := newEnv(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	caller, err := e.authority()
	if err != nil {
		return err
	}
	quoteMint, err := pubkeyFlag(cmd, "quote")
	if err != nil {
		return err
	}
	fromMint, err := pubkeyFlag(cmd, "from")
	if err != nil {
		return err
	}
	toMint, err := pubkeyFlag(cmd, "to")
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetUint64("amount")

	quote, err := e.engine.Swap(ctx, caller, quoteMint, fromMint, toMint, amount)
	if err != nil {
		return err
	}

	e.logger.Info("swap result",
		zap.String("direction", quote.Direction.String()),
		zap.Uint64("from_amount", quote.FromAmount),
		zap.Uint64("to_amount_before_fee", quote.ToAmountBeforeFee),
		zap.Uint64("fee", quote.Fee),
		zap.Uint64("to_amount", quote.NetAmount()),
	)

	return e.save()
}

func runPreview(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	e, err := newEnv(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	quoteMint, err := pubkeyFlag(cmd, "quote")
	if err != nil {
		return err
	}
	fromMint, err := pubkeyFlag(cmd, "from")
	if err != nil {
		return err
	}
	toMint, err := pubkeyFlag(cmd, "to")
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetUint64("amount")

	quote, err := previewQuote(e, quoteMint, fromMint, toMint, amount)
	if err != nil {
		return err
	}

	e.logger.Info("preview",
		zap.String("direction", quote.Direction.String()),
		zap.Uint64("from_amount", quote.FromAmount),
		zap.Uint64("to_amount_before_fee", quote.ToAmountBeforeFee),
		zap.Uint64("fee", quote.Fee),
		zap.Uint64("to_amount", quote.NetAmount()),
	)
	return nil
}

func previewQuote(e *env, quoteMint, fromMint, toMint solana.PublicKey, amount uint64) (pool.Quote, error) {
	record, _, err := e.engine.Pool(quoteMint)
	if err != nil {
		return pool.Quote{}, err
	}
	baseLiquidity, quoteLiquidity, err := e.engine.Liquidity(quoteMint)
	if err != nil {
		return pool.Quote{}, err
	}
	return pool.PreviewSwap(record, fromMint, toMint, amount, baseLiquidity, quoteLiquidity)
}
