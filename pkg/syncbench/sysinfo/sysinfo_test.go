package sysinfo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	r, err := Detect(context.Background())
	if err != nil {
		t.Logf("partial detection: %v", err)
	}

	assert.Positive(t, r.CPUs)
	if r.TotalRAM > 0 {
		assert.LessOrEqual(t, r.AvailableRAM, r.TotalRAM)
	}
}
