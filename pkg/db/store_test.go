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

package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
)

// fakeQuerier scripts Exec results and QueryRow scans for one statement
// at a time.
type fakeQuerier struct {
	execTag  pgconn.CommandTag
	execErr  error
	execSQL  []string
	rowScan  func(dest ...any) error
	batchErr error
	batches  []*pgx.Batch
}

func (q *fakeQuerier) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	q.execSQL = append(q.execSQL, sql)

	return q.execTag, q.execErr
}

func (q *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not used")
}

func (q *fakeQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{scan: q.rowScan}
}

func (q *fakeQuerier) SendBatch(_ context.Context, batch *pgx.Batch) pgx.BatchResults {
	q.batches = append(q.batches, batch)

	return fakeBatchResults{err: q.batchErr}
}

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakeBatchResults struct {
	err error
}

func (r fakeBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, r.err }
func (r fakeBatchResults) Query() (pgx.Rows, error)         { panic("not used") }
func (r fakeBatchResults) QueryRow() pgx.Row                { panic("not used") }
func (r fakeBatchResults) Close() error                     { return nil }

func testRule() *models.AlertRule {
	return &models.AlertRule{
		ID:       "r-1",
		Name:     "High CPU",
		Severity: models.SeverityCritical,
		Enabled:  true,
		Conditions: []models.Condition{
			{Field: "device.cpu", Op: models.OpGt, Value: 90},
		},
	}
}

func TestCreateRuleDuplicate(t *testing.T) {
	q := &fakeQuerier{execErr: &pgconn.PgError{Code: "23505"}}
	store := NewStoreWithQuerier(q, logger.NewTestLogger())

	err := store.CreateRule(context.Background(), testRule())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateRuleOtherErrorPassesThrough(t *testing.T) {
	cause := errors.New("connection reset")
	q := &fakeQuerier{execErr: cause}
	store := NewStoreWithQuerier(q, logger.NewTestLogger())

	err := store.CreateRule(context.Background(), testRule())
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrDuplicate)
}

func TestUpdateRuleNotFound(t *testing.T) {
	q := &fakeQuerier{execTag: pgconn.NewCommandTag("UPDATE 0")}
	store := NewStoreWithQuerier(q, logger.NewTestLogger())

	err := store.UpdateRule(context.Background(), testRule())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRuleWithActiveAlerts(t *testing.T) {
	q := &fakeQuerier{
		rowScan: func(dest ...any) error {
			*dest[0].(*int) = 2
			return nil
		},
	}
	store := NewStoreWithQuerier(q, logger.NewTestLogger())

	err := store.DeleteRule(context.Background(), "r-1")
	assert.ErrorIs(t, err, ErrRuleHasAlerts)
	// The delete statement must not have been issued.
	assert.Empty(t, q.execSQL)
}

func TestDeleteRule(t *testing.T) {
	q := &fakeQuerier{
		execTag: pgconn.NewCommandTag("DELETE 1"),
		rowScan: func(dest ...any) error {
			*dest[0].(*int) = 0
			return nil
		},
	}
	store := NewStoreWithQuerier(q, logger.NewTestLogger())

	require.NoError(t, store.DeleteRule(context.Background(), "r-1"))
	require.Len(t, q.execSQL, 1)
}

func TestUpdateNotificationNotFound(t *testing.T) {
	q := &fakeQuerier{execTag: pgconn.NewCommandTag("UPDATE 0")}
	store := NewStoreWithQuerier(q, logger.NewTestLogger())

	err := store.UpdateNotification(context.Background(), &models.Notification{ID: "n-1"})
	assert.ErrorIs(t, err, ErrNotFound)
}
