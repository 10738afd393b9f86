package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeChangedLine(t *testing.T) {
	summary := Summarize("line1\nline2", "line1\nline3")

	require.Len(t, summary.Lines, 2)
	assert.Equal(t, Line{Kind: Removed, Text: "line2"}, summary.Lines[0])
	assert.Equal(t, Line{Kind: Added, Text: "line3"}, summary.Lines[1])
	assert.False(t, summary.Empty())
}

func TestSummarizeIdenticalContent(t *testing.T) {
	summary := Summarize("a\nb\nc", "a\nb\nc")
	assert.True(t, summary.Empty())
	assert.Empty(t, summary.Lines)
}

func TestSummarizePureAdditions(t *testing.T) {
	summary := Summarize("a", "a\nb\nc")

	require.Len(t, summary.Lines, 2)
	assert.Equal(t, Line{Kind: Added, Text: "b"}, summary.Lines[0])
	assert.Equal(t, Line{Kind: Added, Text: "c"}, summary.Lines[1])
}

func TestSummarizePureRemovals(t *testing.T) {
	summary := Summarize("a\nb\nc", "c")

	require.Len(t, summary.Lines, 2)
	assert.Equal(t, Line{Kind: Removed, Text: "a"}, summary.Lines[0])
	assert.Equal(t, Line{Kind: Removed, Text: "b"}, summary.Lines[1])
}

func TestSummarizeFromEmpty(t *testing.T) {
	summary := Summarize("", "primeira linha\nsegunda linha")

	require.Len(t, summary.Lines, 2)
	assert.Equal(t, Added, summary.Lines[0].Kind)
	assert.Equal(t, Added, summary.Lines[1].Kind)

	reverse := Summarize("primeira linha", "")
	require.Len(t, reverse.Lines, 1)
	assert.Equal(t, Line{Kind: Removed, Text: "primeira linha"}, reverse.Lines[0])
}

func TestSummarizeInterleavedChanges(t *testing.T) {
	before := "keep1\ndrop1\nkeep2\ndrop2"
	after := "keep1\nadd1\nkeep2\nadd2\nkeep3"

	summary := Summarize(before, after)

	want := []Line{
		{Kind: Removed, Text: "drop1"},
		{Kind: Added, Text: "add1"},
		{Kind: Removed, Text: "drop2"},
		{Kind: Added, Text: "add2"},
		{Kind: Added, Text: "keep3"},
	}
	assert.Equal(t, want, summary.Lines)
}

func TestSummarizeBothEmpty(t *testing.T) {
	assert.True(t, Summarize("", "").Empty())
}
