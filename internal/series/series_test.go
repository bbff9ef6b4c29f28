package series

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/churnprep/internal/errors"
)

func TestNewSeries(t *testing.T) {
	mem := memory.NewGoAllocator()

	tests := []struct {
		name           string
		columnName     string
		data           interface{}
		expectedLen    int
		expectedValues interface{}
	}{
		{
			name:           "string series",
			columnName:     "names",
			data:           []string{"alice", "bob", "charlie"},
			expectedLen:    3,
			expectedValues: []string{"alice", "bob", "charlie"},
		},
		{
			name:           "int64 series",
			columnName:     "ages",
			data:           []int64{25, 30, 35},
			expectedLen:    3,
			expectedValues: []int64{25, 30, 35},
		},
		{
			name:           "float64 series",
			columnName:     "scores",
			data:           []float64{85.5, 92.0, 78.3},
			expectedLen:    3,
			expectedValues: []float64{85.5, 92.0, 78.3},
		},
		{
			name:           "bool series",
			columnName:     "active",
			data:           []bool{true, false, true},
			expectedLen:    3,
			expectedValues: []bool{true, false, true},
		},
		{
			name:           "empty string series",
			columnName:     "empty",
			data:           []string{},
			expectedLen:    0,
			expectedValues: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var series interface{}

			switch data := tt.data.(type) {
			case []string:
				series = New(tt.columnName, data, mem)
			case []int64:
				series = New(tt.columnName, data, mem)
			case []float64:
				series = New(tt.columnName, data, mem)
			case []bool:
				series = New(tt.columnName, data, mem)
			}

			// Test basic properties
			switch s := series.(type) {
			case *Series[string]:
				defer s.Release()
				assert.Equal(t, tt.columnName, s.Name())
				assert.Equal(t, tt.expectedLen, s.Len())
				if tt.expectedLen > 0 {
					assert.Equal(t, tt.expectedValues, s.Values())
				}
			case *Series[int64]:
				defer s.Release()
				assert.Equal(t, tt.columnName, s.Name())
				assert.Equal(t, tt.expectedLen, s.Len())
				if tt.expectedLen > 0 {
					assert.Equal(t, tt.expectedValues, s.Values())
				}
			case *Series[float64]:
				defer s.Release()
				assert.Equal(t, tt.columnName, s.Name())
				assert.Equal(t, tt.expectedLen, s.Len())
				if tt.expectedLen > 0 {
					assert.Equal(t, tt.expectedValues, s.Values())
				}
			case *Series[bool]:
				defer s.Release()
				assert.Equal(t, tt.columnName, s.Name())
				assert.Equal(t, tt.expectedLen, s.Len())
				if tt.expectedLen > 0 {
					assert.Equal(t, tt.expectedValues, s.Values())
				}
			}
		})
	}
}

func TestSeriesValue(t *testing.T) {
	mem := memory.NewGoAllocator()

	data := []string{"first", "second", "third"}
	series := New("test", data, mem)
	defer series.Release()

	// Test valid indices
	assert.Equal(t, "first", series.Value(0))
	assert.Equal(t, "second", series.Value(1))
	assert.Equal(t, "third", series.Value(2))

	// Test invalid indices (should return zero value)
	assert.Equal(t, "", series.Value(-1))
	assert.Equal(t, "", series.Value(3))
	assert.Equal(t, "", series.Value(100))
}

func TestSeriesString(t *testing.T) {
	mem := memory.NewGoAllocator()

	series := New("test_column", []string{"a", "b", "c"}, mem)
	defer series.Release()

	str := series.String()
	assert.Contains(t, str, "Series[string]")
	assert.Contains(t, str, "test_column")
	assert.Contains(t, str, "len=3")
	assert.Contains(t, str, "nulls=0")
}

func TestUnsupportedType(t *testing.T) {
	mem := memory.NewGoAllocator()

	// Test that unsupported types panic
	assert.Panics(t, func() {
		New("test", []complex64{1 + 2i, 3 + 4i}, mem)
	})
}

func TestNewSafeUnsupportedType(t *testing.T) {
	s, err := NewSafe("test", []complex64{1 + 2i}, memory.NewGoAllocator())

	require.Error(t, err)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, errors.ErrUnsupportedType)
}

func TestNewNullable(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("missing rows are null and read as zero", func(t *testing.T) {
		s, err := NewNullable("total_charges", []float64{29.85, 0, 108.15}, []bool{true, false, true}, mem)
		require.NoError(t, err)
		defer s.Release()

		assert.Equal(t, 1, s.NullN())
		assert.True(t, s.IsNull(1))
		assert.Equal(t, []float64{29.85, 0, 108.15}, s.Values())
		assert.Equal(t, []bool{true, false, true}, s.Valid())
		assert.Equal(t, "", s.GetAsString(1))
	})

	t.Run("nil validity means all present", func(t *testing.T) {
		s, err := NewNullable("partner", []string{"Yes", "No"}, nil, mem)
		require.NoError(t, err)
		defer s.Release()

		assert.Equal(t, 0, s.NullN())
	})

	t.Run("validity length mismatch", func(t *testing.T) {
		_, err := NewNullable("partner", []string{"Yes", "No"}, []bool{true}, mem)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}

func TestTimestampSeries(t *testing.T) {
	mem := memory.NewGoAllocator()
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	times := []time.Time{
		time.Date(2019, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 1, 12, 0, 0, 0, ny),
	}
	s := New("begin_date", times, mem)
	defer s.Release()

	assert.True(t, arrow.TypeEqual(TimestampType, s.DataType()))
	assert.Equal(t, times[0], s.Value(0))
	assert.Equal(t, times[1].UTC(), s.Value(1))
	assert.Equal(t, "2019-03-15 00:00:00", s.GetAsString(0))
}

func TestGetAsString(t *testing.T) {
	mem := memory.NewGoAllocator()

	ints := New("n", []int64{-3, 42}, mem)
	defer ints.Release()
	floats := New("f", []float64{0.5, 1990}, mem)
	defer floats.Release()
	bools := New("b", []bool{true, false}, mem)
	defer bools.Release()

	assert.Equal(t, "-3", ints.GetAsString(0))
	assert.Equal(t, "0.5", floats.GetAsString(0))
	assert.Equal(t, "1990", floats.GetAsString(1))
	assert.Equal(t, "True", bools.GetAsString(0))
	assert.Equal(t, "False", bools.GetAsString(1))
	assert.Equal(t, "", bools.GetAsString(5))
}

func TestWrapAndRename(t *testing.T) {
	mem := memory.NewGoAllocator()

	builder := array.NewBooleanBuilder(mem)
	builder.AppendValues([]bool{true, false}, []bool{true, false})
	arr := builder.NewArray()
	builder.Release()

	wrapped, err := Wrap("is_active", arr)
	require.NoError(t, err)
	defer wrapped.Release()

	typed, ok := wrapped.(*Series[bool])
	require.True(t, ok)
	assert.Equal(t, 1, typed.NullN())

	renamed := typed.Rename("active")
	defer renamed.Release()
	assert.Equal(t, "active", renamed.Name())
	assert.Equal(t, "is_active", typed.Name())
	assert.True(t, renamed.Value(0))
}
