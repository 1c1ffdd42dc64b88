package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fixedpool/internal/ledger"
)

func runMint(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	e, err := newEnv(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	authority, err := e.authority()
	if err != nil {
		return err
	}
	mint, err := pubkeyFlag(cmd, "mint")
	if err != nil {
		return err
	}
	dest, err := pubkeyFlag(cmd, "to")
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetUint64("amount")
	create, _ := cmd.Flags().GetBool("create")

	if create {
		if err := e.led.CreateMint(mint, authority); err != nil && !errors.Is(err, ledger.ErrAccountExists) {
			return err
		}
	}

	ata, err := e.led.CreateAssociatedAccountIfAbsent(dest, mint)
	if err != nil {
		return err
	}
	if err := e.led.MintTo(mint, ata, authority, amount); err != nil {
		return err
	}

	e.logger.Info("minted",
		zap.String("mint", mint.String()),
		zap.String("to", dest.String()),
		zap.String("token_account", ata.String()),
		zap.Uint64("amount", amount),
	)

	return e.save()
}

func runFaucet(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	e, err := newEnv(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	dest, err := pubkeyFlag(cmd, "to")
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetUint64("amount")

	e.led.Credit(dest, amount)
	e.logger.Info("credited", zap.String("to", dest.String()), zap.Uint64("amount", amount))

	return e.save()
}

func runBalances(cmd *cobra.Command, _ []string) error {
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

	_, custody, err := e.engine.Pool(quoteMint)
	if err != nil {
		return err
	}

	e.logger.Info("custody balances",
		zap.String("pool", custody.Pool.String()),
		zap.Uint64("base_liquidity", e.led.NativeBalance(custody.Vault)),
		zap.Uint64("quote_liquidity", e.led.TokenBalance(custody.QuoteCustody)),
		zap.Uint64("fee_base", e.led.NativeBalance(custody.Fee)),
		zap.Uint64("fee_quote", e.led.TokenBalance(custody.FeeQuoteCustody)),
	)
	return nil
}
