package override

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_Resolve(t *testing.T) {
	assert.Equal(t, 65, Inherit[int]().Resolve(65))
	assert.Equal(t, 60, Set(60).Resolve(65))

	// 覆盖为零值同样生效
	assert.Equal(t, 0.0, Set(0.0).Resolve(6.0))
	assert.False(t, Set(false).Resolve(true))
}

func TestField_ResolvePtr(t *testing.T) {
	base := 3.5
	assert.Nil(t, Inherit[float64]().ResolvePtr(nil))
	assert.Equal(t, &base, Inherit[float64]().ResolvePtr(&base))

	got := Set(7.0).ResolvePtr(nil)
	require.NotNil(t, got)
	assert.Equal(t, 7.0, *got)
}

func TestFromColumns(t *testing.T) {
	v := 62
	assert.False(t, FromColumns(false, &v).IsSet())
	assert.False(t, FromColumns[int](true, nil).IsSet())

	f := FromColumns(true, &v)
	got, ok := f.Get()
	assert.True(t, ok)
	assert.Equal(t, 62, got)
	assert.Equal(t, &v, f.Ptr())
	assert.Nil(t, Inherit[int]().Ptr())
}

func TestField_Or(t *testing.T) {
	assert.Equal(t, 1, Set(1).Or(Set(2)).Resolve(0))
	assert.Equal(t, 2, Inherit[int]().Or(Set(2)).Resolve(0))
	assert.False(t, Inherit[int]().Or(Inherit[int]()).IsSet())
}

func TestField_JSON(t *testing.T) {
	type patch struct {
		Value decimal.Decimal `json:"value"`
		Rate  Field[float64]  `json:"rate"`
		Age   Field[int]      `json:"age"`
		Flag  Field[bool]     `json:"flag"`
	}

	var p patch
	require.NoError(t, json.Unmarshal([]byte(`{"value":"1","rate":2.5,"age":null}`), &p))
	assert.True(t, p.Rate.IsSet())
	assert.Equal(t, 2.5, p.Rate.Resolve(0))
	assert.False(t, p.Age.IsSet())
	assert.False(t, p.Flag.IsSet())

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"1","rate":2.5,"age":null,"flag":null}`, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"age":"x"}`), &p))
}
