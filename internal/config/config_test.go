package config

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func modelInputs() cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"shared_parameters": cty.ObjectVal(map[string]cty.Value{
			"rating": cty.NumberIntVal(640),
		}),
		"cost_parameters": cty.ObjectVal(map[string]cty.Value{
			"capex_usd_per_kw": cty.NumberFloatVal(1200.5),
			"location":         cty.StringVal("onshore"),
		}),
		"performance_parameters": cty.ObjectVal(map[string]cty.Value{
			"rating": cty.NumberIntVal(1),
		}),
	})
}

func TestMergeSharedInputs(t *testing.T) {
	t.Parallel()

	t.Run("merges shared into kind", func(t *testing.T) {
		t.Parallel()
		merged, err := MergeSharedInputs(modelInputs(), "cost")
		require.NoError(t, err)
		assert.True(t, merged.Type().HasAttribute("rating"))
		assert.True(t, merged.Type().HasAttribute("location"))
		assert.True(t, merged.Type().HasAttribute("capex_usd_per_kw"))
	})

	t.Run("missing sections give an empty object", func(t *testing.T) {
		t.Parallel()
		merged, err := MergeSharedInputs(cty.EmptyObjectVal, "control")
		require.NoError(t, err)
		assert.Equal(t, 0, len(merged.Type().AttributeTypes()))
	})

	t.Run("duplicates are rejected", func(t *testing.T) {
		t.Parallel()
		_, err := MergeSharedInputs(modelInputs(), "performance")
		require.Error(t, err)
		assert.Equal(t, "duplicate parameters found: rating. Please define parameters only once in the shared and performance dictionaries.", err.Error())
	})
}

type nestedParams struct {
	Flag bool `cty:"flag"`
}

type costParams struct {
	Rating   float64      `cty:"rating"`
	Capex    float64      `cty:"capex_usd_per_kw"`
	Location string       `cty:"location,optional"`
	Years    int          `cty:"years,optional"`
	Curve    []float64    `cty:"curve,optional"`
	Extra    cty.Value    `cty:"extra,optional"`
	Nested   nestedParams `cty:"nested,optional"`
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("fills fields and keeps defaults", func(t *testing.T) {
		t.Parallel()
		val := cty.ObjectVal(map[string]cty.Value{
			"rating":           cty.NumberIntVal(10),
			"capex_usd_per_kw": cty.NumberFloatVal(700),
			"curve":            cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberFloatVal(2.5)}),
			"extra":            cty.StringVal("raw"),
			"nested":           cty.ObjectVal(map[string]cty.Value{"flag": cty.True}),
			"unknown_key":      cty.StringVal("ignored"),
		})
		p := costParams{Location: "offshore", Years: 30}
		require.NoError(t, Decode(val, &p))

		assert.Equal(t, 10.0, p.Rating)
		assert.Equal(t, 700.0, p.Capex)
		assert.Equal(t, "offshore", p.Location)
		assert.Equal(t, 30, p.Years)
		if diff := cmp.Diff([]float64{1, 2.5}, p.Curve); diff != "" {
			t.Errorf("curve mismatch (-want +got):\n%s", diff)
		}
		assert.True(t, p.Extra.RawEquals(cty.StringVal("raw")))
		assert.True(t, p.Nested.Flag)
	})

	t.Run("missing required parameter", func(t *testing.T) {
		t.Parallel()
		val := cty.ObjectVal(map[string]cty.Value{"rating": cty.NumberIntVal(1)})
		err := Decode(val, &costParams{})
		assert.EqualError(t, err, `missing required parameter "capex_usd_per_kw"`)
	})

	t.Run("missing nested parameter", func(t *testing.T) {
		t.Parallel()
		val := cty.ObjectVal(map[string]cty.Value{
			"rating":           cty.NumberIntVal(1),
			"capex_usd_per_kw": cty.NumberIntVal(1),
			"nested":           cty.EmptyObjectVal,
		})
		err := Decode(val, &costParams{})
		assert.EqualError(t, err, `missing required parameter "nested.flag"`)
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()
		val := cty.ObjectVal(map[string]cty.Value{
			"rating":           cty.StringVal("big"),
			"capex_usd_per_kw": cty.NumberIntVal(1),
		})
		err := Decode(val, &costParams{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `parameter "rating"`)
	})

	t.Run("target must be a struct pointer", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, Decode(cty.EmptyObjectVal, costParams{}))
	})
}

func TestLookupHelpers(t *testing.T) {
	t.Parallel()

	v := cty.ObjectVal(map[string]cty.Value{
		"simulation_options": cty.ObjectVal(map[string]cty.Value{
			"cache": cty.False,
			"name":  cty.StringVal("hybrid"),
			"size":  cty.NumberIntVal(3),
		}),
	})

	cache, err := Bool(v, "simulation_options.cache", true)
	require.NoError(t, err)
	assert.False(t, cache)

	missing, err := Bool(v, "simulation_options.missing", true)
	require.NoError(t, err)
	assert.True(t, missing)

	name, err := String(v, "simulation_options.name", "")
	require.NoError(t, err)
	assert.Equal(t, "hybrid", name)

	size, err := Float(v, "simulation_options.size", 0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, size)

	assert.Equal(t, cty.NilVal, Lookup(cty.NilVal, "a.b"))
}

func TestSeries(t *testing.T) {
	t.Parallel()

	got, err := Series(cty.NumberIntVal(4), 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 4, 4}, got)

	got, err = Series(cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberFloatVal(2.5)}), 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5}, got)

	got, err = Series(cty.NilVal, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, got)

	_, err = Series(cty.ListVal([]cty.Value{cty.NumberIntVal(1)}), 2)
	assert.EqualError(t, err, "expected 2 values, got 1")
}

func validModel() *Model {
	return &Model{
		Plant: &Plant{
			Life: 30,
			Site: &Site{},
			Interconnections: []Connection{
				{Fields: []string{"wind", "electrolyzer", "electricity", "cable"}},
				{Fields: []string{"electrolyzer", "ammonia", "hydrogen_out"}},
			},
			ResourceConnections: []Connection{{Fields: []string{"river_resource", "hydro", "discharge"}}},
		},
		Technologies: []*Technology{
			{Name: "wind", Performance: &ModelRef{Model: "wind_plant_performance"}},
			{Name: "natural_gas_feedstocks"},
		},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validModel().Validate())

	m := validModel()
	m.Plant.Life = 0
	m.Plant.Interconnections = append(m.Plant.Interconnections, Connection{Fields: []string{"wind", "electrolyzer"}})
	m.Plant.ResourceConnections = append(m.Plant.ResourceConnections, Connection{Fields: []string{"a", "b", "c", "d"}})
	m.Technologies = append(m.Technologies, &Technology{Name: "electrolyzer"})

	err := m.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "plant_life must be positive")
	assert.Contains(t, msg, "Invalid connection: ['wind', 'electrolyzer']")
	assert.Contains(t, msg, "Invalid resource to tech connection: ['a', 'b', 'c', 'd']")
	assert.Contains(t, msg, "Model definition requires 'performance_model'.")
}

func TestConnection(t *testing.T) {
	t.Parallel()

	c := Connection{Fields: []string{"wind", "electrolyzer", "electricity", "cable"}}
	assert.Equal(t, "wind", c.Source())
	assert.Equal(t, "electrolyzer", c.Dest())
	assert.Equal(t, "electricity", c.Item())
	assert.Equal(t, "cable", c.Transport())
	assert.Equal(t, 4, c.Arity())
	assert.Equal(t, "", Connection{Fields: []string{"a"}}.Transport())
}

type stubLoader struct {
	path string
}

func (s *stubLoader) Load(_ context.Context, path string) (*Model, error) {
	s.path = path
	return &Model{Name: "stub"}, nil
}

func TestExtensionLoader(t *testing.T) {
	t.Parallel()

	yaml := &stubLoader{}
	loader := ExtensionLoader{".yaml": yaml, ".yml": yaml}

	m, err := loader.Load(context.Background(), "dir/plant.YAML")
	require.NoError(t, err)
	assert.Equal(t, "stub", m.Name)
	assert.Equal(t, "dir/plant.YAML", yaml.path)

	_, err = loader.Load(context.Background(), "plant.toml")
	assert.EqualError(t, err, "no configuration loader for '.toml' files")
}
