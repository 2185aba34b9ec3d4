// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package schedule_test

import (
	"testing"
	"time"

	"github.com/loomrun/engine/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRejectsInvalidExpression(t *testing.T) {
	_, err := schedule.Parse("not a cron expression")
	require.Error(t, err)
}

func TestNextComputesNextActivation(t *testing.T) {
	s, err := schedule.Parse("0 9 * * *")
	require.NoError(t, err)

	from := time.Date(2026, 7, 31, 8, 0, 0, 0, time.UTC)
	next := s.Next(from)
	assert.Equal(t, time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC), next)
}

func TestNextSkipsToFollowingDayWhenPastTodaysActivation(t *testing.T) {
	s, err := schedule.Parse("0 9 * * *")
	require.NoError(t, err)

	from := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	next := s.Next(from)
	assert.Equal(t, time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC), next)
}

func TestStringReturnsOriginalExpression(t *testing.T) {
	s, err := schedule.Parse("*/5 * * * *")
	require.NoError(t, err)
	assert.Equal(t, "*/5 * * * *", s.String())
}
