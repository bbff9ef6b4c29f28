package dataframe

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/churnprep/internal/errors"
)

// JoinType represents the type of join operation
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullOuterJoin
)

func (t JoinType) String() string {
	switch t {
	case InnerJoin:
		return "inner"
	case LeftJoin:
		return "left"
	case RightJoin:
		return "right"
	case FullOuterJoin:
		return "full outer"
	default:
		return fmt.Sprintf("JoinType(%d)", int(t))
	}
}

// DefaultJoinSuffix is appended to right-hand columns whose names collide
// with a left-hand column.
const DefaultJoinSuffix = "_right"

// JoinOptions specifies parameters for join operations
type JoinOptions struct {
	Type      JoinType
	LeftKey   string   // Single join key for left DataFrame
	RightKey  string   // Single join key for right DataFrame
	LeftKeys  []string // Multiple join keys for left DataFrame
	RightKeys []string // Multiple join keys for right DataFrame
	Suffix    string   // Defaults to DefaultJoinSuffix
}

// Join combines df with right on equal key values. Keys that share a name on
// both sides are merged into a single column holding whichever side is
// present, so outer joins never lose the key of an unmatched row. A row with
// a missing key never matches. Unmatched cells on the other side are null.
func (df *DataFrame) Join(right *DataFrame, options *JoinOptions) (*DataFrame, error) {
	if options == nil {
		return nil, errors.NewInvalidInputError("Join", "join options are required")
	}
	leftKeys, rightKeys := normalizeJoinKeys(options)

	if len(leftKeys) == 0 || len(leftKeys) != len(rightKeys) {
		return nil, errors.NewInvalidInputError("Join",
			fmt.Sprintf("number of left keys (%d) must match number of right keys (%d)",
				len(leftKeys), len(rightKeys)))
	}
	if err := validateJoinKeys(df, right, leftKeys, rightKeys); err != nil {
		return nil, err
	}

	index := NewKeyIndex(right.Len())
	for i := 0; i < right.Len(); i++ {
		if key, ok := buildJoinKey(right, rightKeys, i); ok {
			index.Put(key, i)
		}
	}

	var leftIndices, rightIndices []int
	switch options.Type {
	case InnerJoin:
		leftIndices, rightIndices = df.probe(index, leftKeys, false)
	case LeftJoin:
		leftIndices, rightIndices = df.probe(index, leftKeys, true)
	case RightJoin:
		leftIndices, rightIndices = df.probe(index, leftKeys, false)
		leftIndices, rightIndices = appendUnmatchedRight(right.Len(), leftIndices, rightIndices)
	case FullOuterJoin:
		leftIndices, rightIndices = df.probe(index, leftKeys, true)
		leftIndices, rightIndices = appendUnmatchedRight(right.Len(), leftIndices, rightIndices)
	default:
		return nil, errors.NewInvalidInputError("Join", fmt.Sprintf("unsupported join type: %v", options.Type))
	}

	suffix := options.Suffix
	if suffix == "" {
		suffix = DefaultJoinSuffix
	}
	return df.buildJoinResult(right, leftKeys, rightKeys, leftIndices, rightIndices, suffix)
}

// normalizeJoinKeys extracts the actual keys to use for joining
func normalizeJoinKeys(options *JoinOptions) ([]string, []string) {
	if len(options.LeftKeys) > 0 || len(options.RightKeys) > 0 {
		return options.LeftKeys, options.RightKeys
	}
	if options.LeftKey == "" && options.RightKey == "" {
		return nil, nil
	}
	return []string{options.LeftKey}, []string{options.RightKey}
}

// validateJoinKeys ensures all join keys exist in both DataFrames
func validateJoinKeys(left, right *DataFrame, leftKeys, rightKeys []string) error {
	for _, key := range leftKeys {
		if !left.HasColumn(key) {
			return errors.NewColumnNotFoundError("Join", key)
		}
	}
	for _, key := range rightKeys {
		if !right.HasColumn(key) {
			return errors.NewColumnNotFoundError("Join", key)
		}
	}
	return nil
}

// buildJoinKey creates a composite key from the key columns at rowIndex. It
// reports false when any part is missing.
func buildJoinKey(df *DataFrame, keys []string, rowIndex int) (string, bool) {
	if len(keys) == 1 {
		col := df.columns[keys[0]]
		if col.IsNull(rowIndex) {
			return "", false
		}
		return col.GetAsString(rowIndex), true
	}

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		col := df.columns[key]
		if col.IsNull(rowIndex) {
			return "", false
		}
		parts = append(parts, col.GetAsString(rowIndex))
	}
	return strings.Join(parts, "\x1f"), true
}

// probe walks the left rows against the right key index. keepUnmatched keeps
// left rows with no partner, paired with -1.
func (df *DataFrame) probe(index *KeyIndex, leftKeys []string, keepUnmatched bool) ([]int, []int) {
	leftIndices := make([]int, 0, df.Len())
	rightIndices := make([]int, 0, df.Len())

	for i := 0; i < df.Len(); i++ {
		key, ok := buildJoinKey(df, leftKeys, i)
		var rows []int
		if ok {
			rows, ok = index.Get(key)
		}
		if ok {
			for _, r := range rows {
				leftIndices = append(leftIndices, i)
				rightIndices = append(rightIndices, r)
			}
		} else if keepUnmatched {
			leftIndices = append(leftIndices, i)
			rightIndices = append(rightIndices, -1)
		}
	}
	return leftIndices, rightIndices
}

func appendUnmatchedRight(rightLen int, leftIndices, rightIndices []int) ([]int, []int) {
	matched := make([]bool, rightLen)
	for _, r := range rightIndices {
		if r >= 0 {
			matched[r] = true
		}
	}
	for i, m := range matched {
		if !m {
			leftIndices = append(leftIndices, -1)
			rightIndices = append(rightIndices, i)
		}
	}
	return leftIndices, rightIndices
}

func (df *DataFrame) buildJoinResult(
	right *DataFrame, leftKeys, rightKeys []string, leftIndices, rightIndices []int, suffix string,
) (*DataFrame, error) {
	mem := memory.NewGoAllocator()

	shared := make(map[string]bool, len(leftKeys))
	for k := range leftKeys {
		if leftKeys[k] == rightKeys[k] {
			shared[leftKeys[k]] = true
		}
	}

	result := make([]ISeries, 0, df.Width()+right.Width())
	names := make(map[string]bool, df.Width()+right.Width())

	for _, name := range df.order {
		var (
			col ISeries
			err error
		)
		if shared[name] {
			col, err = coalesceColumns(name, df.columns[name], right.columns[name], leftIndices, rightIndices, mem)
		} else {
			col, err = gatherColumn(df.columns[name], name, leftIndices, mem)
		}
		if err != nil {
			return nil, err
		}
		result = append(result, col)
		names[name] = true
	}

	for _, name := range right.order {
		if shared[name] {
			continue
		}
		outName := name
		if names[outName] {
			outName = name + suffix
			if names[outName] {
				return nil, errors.NewValidationError("Join", name,
					fmt.Sprintf("column name collides with '%s' even after suffixing", outName))
			}
		}
		col, err := gatherColumn(right.columns[name], outName, rightIndices, mem)
		if err != nil {
			return nil, err
		}
		result = append(result, col)
		names[outName] = true
	}

	return New(result...), nil
}
