package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEntropyMetrics(t *testing.T) {
	metrics := NewEntropyMetrics("")
	assert.NotNil(t, metrics.Store.Updates)
	assert.NotNil(t, metrics.Sched.Rounds)

	metrics = NewEntropyMetrics(":9099")
	assert.NotNil(t, metrics.Store.Updates)
	assert.NotNil(t, metrics.Sched.Rounds)
}
