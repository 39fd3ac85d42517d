package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twominute/twominute/internal/plan"
	"github.com/twominute/twominute/pkg/cerr"
)

func TestPlanRequest(t *testing.T) {
	req, err := planRequest("Study OS scheduling", true, 25, false)
	require.NoError(t, err)
	assert.Equal(t, plan.Request{Task: "Study OS scheduling", BadDay: true, SprintLengthMinutes: 25}, req)
	assert.Equal(t, 25, req.SprintLength())
}

func TestPlanRequest_RejectsSprint(t *testing.T) {
	_, err := planRequest("Study", false, 0, true)
	assert.ErrorContains(t, err, "--sprint must be between 5 and 30")

	for _, n := range []int{4, 31, -1} {
		_, err := planRequest("Study", false, n, true)
		assert.True(t, cerr.IsCode(err, cerr.InvalidArgument), n)
	}
}
