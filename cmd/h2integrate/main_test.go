package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/h2integrate/internal/cli"
)

const plantHCL = `
name = "river_plant"

plant {
  plant_life = 30
  cost_year  = 2022

  site {
    latitude  = 44.9
    longitude = -93.2
  }
}

technology "wind" {
  performance_model {
    model = "wind_plant_performance"
  }
  cost_model {
    model = "wind_plant_cost"
  }
  model_inputs = {
    shared_parameters = {
      num_turbines      = 1
      turbine_rating_kw = 1500
    }
    performance_parameters = {
      wind_speed = 11
    }
    cost_parameters = {
      cost_per_kw = 1300
    }
  }
}
`

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// A technology without a performance model fails the model build
	// inside app.NewApp.
	path := filepath.Join(t.TempDir(), "plant.hcl")
	require.NoError(t, os.WriteFile(path, []byte(plantHCL+`
technology "battery" {
  cost_model {
    model = "wind_plant_cost"
  }
}
`), 0o600))

	out := &bytes.Buffer{}
	runErr := run(context.Background(), out, []string{"--skip-post-process", path}, nil)

	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	assert.Contains(t, runErr.Error(), "application startup panicked")
	assert.Contains(t, runErr.Error(), "Model definition requires 'performance_model'.")
}

func TestRun_HCLPlant(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plant.hcl")
	require.NoError(t, os.WriteFile(path, []byte(plantHCL), 0o600))

	out := &bytes.Buffer{}
	require.NoError(t, run(context.Background(), out, []string{"--output-dir", t.TempDir(), path}, nil))
	assert.Contains(t, out.String(), "Run finished.")
	assert.Contains(t, out.String(), "wind.electricity_out")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"-h"}, nil)

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"--this-is-not-a-valid-flag"}, nil)

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}
