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

package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	err := notFoundErr("rule", "r-1")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "not_found: rule r-1 not found", err.Error())

	cause := errors.New("boom")
	err = internalErr("query failed", cause)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.ErrorIs(t, err, cause)
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", conflictErr("rule has active alerts", nil))
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestValidationErrFormats(t *testing.T) {
	err := validationErr("condition %d has invalid operator %q", 2, "between")

	var coreErr *Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, KindValidation, coreErr.Kind)
	assert.Equal(t, `condition 2 has invalid operator "between"`, coreErr.Message)
}
