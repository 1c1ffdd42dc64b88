package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fixedpool/internal/model"
)

// Store provides Postgres persistence for pool records and transfer audit
// rows.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertPools inserts or updates pool records, keyed by the quote mint.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range pools {
		batch.Queue(`
			INSERT INTO pools (
				quote_mint, base_mint, rate, quote_custody, bump, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (quote_mint)
			DO UPDATE SET
				base_mint = EXCLUDED.base_mint,
				rate = EXCLUDED.rate,
				quote_custody = EXCLUDED.quote_custody,
				bump = EXCLUDED.bump,
				updated_at = now()
		`,
			p.QuoteMint.String(),
			p.BaseMint.String(),
			int64(p.Rate),
			p.QuoteCustody.String(),
			int16(p.Bump),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadPool reads a pool record by quote mint.
func (s *Store) LoadPool(ctx context.Context, quoteMint string) (model.PoolRow, bool, error) {
	var row model.PoolRow
	err := s.pool.QueryRow(ctx, `
		SELECT quote_mint, base_mint, rate, quote_custody, bump
		FROM pools WHERE quote_mint=$1
	`, quoteMint).Scan(&row.QuoteMint, &row.BaseMint, &row.Rate, &row.QuoteCustody, &row.Bump)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PoolRow{}, false, nil
		}
		return model.PoolRow{}, false, err
	}
	return row, true, nil
}

// PutTransferBatch inserts executed transfer audit rows.
func (s *Store) PutTransferBatch(transfers []model.TransferRecord) error {
	if len(transfers) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, t := range transfers {
		batch.Queue(`
			INSERT INTO pool_transfers (
				op, pool, mint, from_account, to_account, amount, native, authorized, executed_at, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		`,
			t.Op,
			t.Pool,
			t.Mint,
			t.From,
			t.To,
			int64(t.Amount),
			t.Native,
			t.Authorized,
			t.ExecutedAt,
		)
	}

	br := s.pool.SendBatch(context.Background(), batch)
	defer br.Close()

	for range transfers {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
