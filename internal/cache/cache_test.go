package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

type result struct {
	CapEx       float64
	Electricity []float64
	Annual      map[string]float64
}

func TestKey(t *testing.T) {
	t.Parallel()

	a := cty.ObjectVal(map[string]cty.Value{
		"wind": cty.ObjectVal(map[string]cty.Value{"num_turbines": cty.NumberIntVal(10)}),
		"grid": cty.ObjectVal(map[string]cty.Value{"interconnect_kw": cty.NumberIntVal(1000)}),
	})
	b := cty.ObjectVal(map[string]cty.Value{
		"grid": cty.ObjectVal(map[string]cty.Value{"interconnect_kw": cty.NumberIntVal(1000)}),
		"wind": cty.ObjectVal(map[string]cty.Value{"num_turbines": cty.NumberIntVal(10)}),
	})

	ka, err := Key(a, 30)
	require.NoError(t, err)
	kb, err := Key(b, 30)
	require.NoError(t, err)
	assert.Equal(t, ka, kb)
	assert.Len(t, ka, 16)

	other, err := Key(a, 25)
	require.NoError(t, err)
	assert.NotEqual(t, ka, other, "plant life is part of the key")

	km1, err := Key(map[string]any{"x": 1, "y": []float64{1, 2}}, 30)
	require.NoError(t, err)
	km2, err := Key(map[string]any{"y": []float64{1, 2}, "x": 1}, 30)
	require.NoError(t, err)
	assert.Equal(t, km1, km2)

	_, err = Key(func() {}, 30)
	assert.Error(t, err)
}

func TestCache_LoadStore(t *testing.T) {
	t.Parallel()

	c := New(t.TempDir() + "/nested/cache")

	var got result
	ok, err := c.Load("abc", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	want := result{CapEx: 1.5e9, Electricity: []float64{1, 2, 3}, Annual: map[string]float64{"hybrid": 6}}
	require.NoError(t, c.Store("abc", want))
	assert.FileExists(t, c.Path("abc"))

	ok, err = c.Load("abc", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cached result mismatch (-want +got):\n%s", diff)
	}
}

func TestCache_LoadCorrupt(t *testing.T) {
	t.Parallel()

	c := New(t.TempDir())
	require.NoError(t, os.WriteFile(c.Path("bad"), []byte{0xc1}, 0o644))

	var got result
	_, err := c.Load("bad", &got)
	assert.ErrorContains(t, err, "failed to decode cache entry bad")
}

func TestCache_Prune(t *testing.T) {
	t.Parallel()

	ctx := ctxlog.Discard(context.Background())
	c := New(t.TempDir())
	require.NoError(t, c.Store("old", result{CapEx: 1}))
	require.NoError(t, c.Store("new", result{CapEx: 2}))

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(c.Path("old"), past, past))

	n, err := c.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, c.Path("old"))
	assert.FileExists(t, c.Path("new"))

	n, err = New(c.Dir+"/missing").Prune(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}
