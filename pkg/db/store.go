/*
 * Copyright 2025 the Y Monitor Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package db persists the inventory, rules, alerts and notification
// records in Postgres via pgx.
package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ymonitor/ymonitor/pkg/logger"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("record already exists")
	ErrRuleHasAlerts = errors.New("rule has open or acknowledged alerts")
)

// Querier is the pgx surface the store needs; *pgxpool.Pool satisfies it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults
}

// Store is the relational persistence layer. It implements
// discovery.Inventory plus the rule/alert/transport repositories.
type Store struct {
	q      Querier
	logger logger.Logger
}

func NewStore(pool *pgxpool.Pool, log logger.Logger) *Store {
	return &Store{q: pool, logger: log.WithComponent("db")}
}

// NewStoreWithQuerier exists for tests that substitute the pool.
func NewStoreWithQuerier(q Querier, log logger.Logger) *Store {
	return &Store{q: q, logger: log.WithComponent("db")}
}

// mapInsertErr converts a Postgres unique violation into ErrDuplicate.
func mapInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}

	return err
}

// sendBatch executes every queued statement and surfaces the first error.
func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, what string) error {
	if batch.Len() == 0 {
		return nil
	}

	results := s.q.SendBatch(ctx, batch)
	defer func() {
		if err := results.Close(); err != nil {
			s.logger.Warn().Err(err).Str("what", what).Msg("batch close failed")
		}
	}()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}
