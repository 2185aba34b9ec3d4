// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package lifecycle_test

import (
	"errors"
	"testing"

	"github.com/loomrun/engine/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseRunsInLIFOOrder(t *testing.T) {
	c := lifecycle.New()
	var order []string
	c.AddFunc(func() error { order = append(order, "a"); return nil })
	c.AddFunc(func() error { order = append(order, "b"); return nil })
	c.AddFunc(func() error { order = append(order, "c"); return nil })

	require.NoError(t, c.Close())
	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestCloseContinuesPastFailuresAndJoinsErrors(t *testing.T) {
	c := lifecycle.New()
	errA := errors.New("a failed")
	errC := errors.New("c failed")
	var ran []string
	c.AddFunc(func() error { ran = append(ran, "a"); return errA })
	c.AddFunc(func() error { ran = append(ran, "b"); return nil })
	c.AddFunc(func() error { ran = append(ran, "c"); return errC })

	err := c.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errC)
	assert.Equal(t, []string{"c", "b", "a"}, ran)
}

func TestCloseOnEmptyCoordinatorIsNil(t *testing.T) {
	c := lifecycle.New()
	assert.NoError(t, c.Close())
}
