package textmodel

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_InsertIntoEmpty(t *testing.T) {
	doc := New()
	op := (&Operation{}).Insert("hello")

	require.NoError(t, doc.Apply(op))
	assert.Equal(t, "hello", doc.Text())
}

func TestApply_RetainInsertDelete(t *testing.T) {
	doc := FromText("hello world")
	// "hello world" -> "hello brave world"
	op := (&Operation{}).Retain(6).Insert("brave ").Retain(5)

	require.NoError(t, doc.Apply(op))
	assert.Equal(t, "hello brave world", doc.Text())

	// "hello brave world" -> "hello world"
	op2 := (&Operation{}).Retain(6).Delete(6).Retain(5)
	require.NoError(t, doc.Apply(op2))
	assert.Equal(t, "hello world", doc.Text())
}

func TestApply_BaseLengthMismatch(t *testing.T) {
	doc := FromText("abc")

	assert.Error(t, doc.Apply((&Operation{}).Retain(5)))
	assert.Error(t, doc.Apply((&Operation{}).Retain(1)))
	assert.Error(t, doc.Apply((&Operation{}).Delete(4)))
	// Document unchanged after failed applies.
	assert.Equal(t, "abc", doc.Text())
}

func TestApply_NegativeSpanRejected(t *testing.T) {
	doc := FromText("hello")

	// The builders refuse negative spans, but a decoded payload can carry
	// any integer.
	retain, err := Unmarshal([]byte(`{"components":[{"kind":"retain","n":-1},{"kind":"retain","n":6}]}`))
	require.NoError(t, err)
	assert.Error(t, doc.Apply(retain))

	del, err := Unmarshal([]byte(`{"components":[{"kind":"retain","n":8},{"kind":"delete","n":-3}]}`))
	require.NoError(t, err)
	assert.Error(t, doc.Apply(del))

	assert.Equal(t, "hello", doc.Text())
}

func TestOperation_Validate(t *testing.T) {
	ok := (&Operation{}).Retain(3).Insert("abc").Delete(2)
	assert.NoError(t, ok.Validate())
	assert.NoError(t, (&Operation{}).Validate())

	assert.Error(t, (&Operation{Components: []Component{{Kind: KindRetain, N: -1}}}).Validate())
	assert.Error(t, (&Operation{Components: []Component{{Kind: KindDelete, N: -5}}}).Validate())
	assert.Error(t, (&Operation{Components: []Component{{Kind: "replace", S: "x"}}}).Validate())
}

func TestApply_MultiByteRunes(t *testing.T) {
	doc := FromText("héllo 世界")
	op := (&Operation{}).Retain(6).Delete(2).Insert("world")

	require.NoError(t, doc.Apply(op))
	assert.Equal(t, "héllo world", doc.Text())
}

func TestDiff_ProducesApplicableOperation(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
	}{
		{"append", "hello", "hello world"},
		{"prepend", "world", "hello world"},
		{"middle edit", "one three", "one two three"},
		{"delete all", "gone", ""},
		{"from empty", "", "fresh note"},
		{"unchanged", "same", "same"},
		{"unicode", "日記を書く", "今日の日記を書いた"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := Diff(tt.old, tt.new)
			doc := FromText(tt.old)
			require.NoError(t, doc.Apply(op))
			assert.Equal(t, tt.new, doc.Text())
		})
	}
}

func TestOperation_MarshalRoundTrip(t *testing.T) {
	op := (&Operation{}).Retain(3).Insert("abc").Delete(2)

	data, err := op.Marshal()
	require.NoError(t, err)

	parsed, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, op.Components, parsed.Components)
}

// Replay determinism: the same operation sequence folded twice over an empty
// document yields identical text.
func TestReplayDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("two replays of the same edit history agree", prop.ForAll(
		func(texts []string) bool {
			ops := make([]*Operation, 0, len(texts))
			prev := ""
			for _, next := range texts {
				ops = append(ops, Diff(prev, next))
				prev = next
			}

			replay := func() string {
				doc := New()
				for _, op := range ops {
					if err := doc.Apply(op); err != nil {
						t.Logf("apply failed: %v", err)
						return "<error>"
					}
				}
				return doc.Text()
			}

			first := replay()
			second := replay()
			return first == second && first == prev
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
