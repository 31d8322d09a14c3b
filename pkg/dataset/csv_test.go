package dataset

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"age,city,signup",
		"34,london,2023-01-02T15:04:05Z",
		"NA,paris,",
		"51,,2023-06-01T00:00:00Z",
	}, "\n")

	schema := Schema{
		Target: "city",
		Fields: []Field{
			{Name: "age", Type: Numeric},
			{Name: "city", Type: Categorical},
			{Name: "signup", Type: Timestamp},
		},
	}

	ds, err := ReadCSV(strings.NewReader(input), schema)
	require.NoError(t, err)

	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, "city", ds.Target())

	age, err := ds.Numeric("age")
	require.NoError(t, err)
	assert.Equal(t, float64(34), age[0])
	assert.True(t, math.IsNaN(age[1]))

	city, err := ds.Strings("city")
	require.NoError(t, err)
	assert.Equal(t, []string{"london", "paris", ""}, city)

	signup, err := ds.Times("signup")
	require.NoError(t, err)
	assert.True(t, signup[1].IsZero())
	assert.Equal(t, time.Date(2023, 1, 2, 15, 4, 5, 0, time.UTC), signup[0])
}

func TestReadCSVSchemaMismatch(t *testing.T) {
	t.Parallel()

	input := "a,b\n1,2\n"

	_, err := ReadCSV(strings.NewReader(input), Schema{Fields: []Field{{Name: "a", Type: Numeric}}})
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = ReadCSV(strings.NewReader(input), Schema{Fields: []Field{
		{Name: "a", Type: Numeric},
		{Name: "c", Type: Numeric},
	}})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestDetectSchema(t *testing.T) {
	t.Parallel()

	header := []string{"n", "ts", "c", "mixed"}
	rows := [][]string{
		{"1.5", "2023-01-02T15:04:05Z", "red", "1"},
		{"NA", "2024-01-02T15:04:05Z", "blue", "x"},
		{"2", "", "red", "2"},
	}

	schema := DetectSchema(header, rows, "c")

	types := map[string]Type{}
	for _, f := range schema.Fields {
		types[f.Name] = f.Type
	}
	assert.Equal(t, Numeric, types["n"])
	assert.Equal(t, Timestamp, types["ts"])
	assert.Equal(t, Categorical, types["c"])
	assert.Equal(t, Categorical, types["mixed"])
	assert.Equal(t, "c", schema.Target)
}

func TestReadCSVAuto(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"price,colour",
		"10.5,red",
		"20,blue",
		"nan,red",
	}, "\n")

	ds, err := ReadCSVAuto(strings.NewReader(input), "price")
	require.NoError(t, err)

	col, err := ds.Column("price")
	require.NoError(t, err)
	assert.Equal(t, Numeric, col.Type)
	assert.Equal(t, "price", ds.Target())

	colour, err := ds.Column("colour")
	require.NoError(t, err)
	assert.Equal(t, Categorical, colour.Type)
}

func TestReadCSVAutoEmpty(t *testing.T) {
	t.Parallel()

	_, err := ReadCSVAuto(strings.NewReader(""), "")
	assert.ErrorIs(t, err, ErrNoColumns)
}
