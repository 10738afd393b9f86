// Package diff produces the added/removed line summary shown when two
// adjacent description versions are compared.
package diff

import "strings"

// Kind tags a summary line.
type Kind string

const (
	Added   Kind = "added"
	Removed Kind = "removed"
)

// Line is one added or removed line of content.
type Line struct {
	Kind Kind
	Text string
}

// Summary holds only the pure additions and deletions between two contents.
// Unchanged lines are dropped. An empty summary is a legitimate "no changes"
// outcome, exposed through Empty so callers can say so explicitly instead of
// rendering nothing.
type Summary struct {
	Lines []Line
}

func (s Summary) Empty() bool {
	return len(s.Lines) == 0
}

// Summarize computes a line-level diff between oldContent and newContent and
// keeps only the added and removed lines, in document order.
func Summarize(oldContent, newContent string) Summary {
	oldLines := splitLines(oldContent)
	newLines := splitLines(newContent)

	lcs := longestCommonSubsequence(oldLines, newLines)

	var out []Line
	oi, ni := 0, 0
	for _, common := range lcs {
		for oi < common.old {
			out = append(out, Line{Kind: Removed, Text: oldLines[oi]})
			oi++
		}
		for ni < common.new {
			out = append(out, Line{Kind: Added, Text: newLines[ni]})
			ni++
		}
		oi++
		ni++
	}
	for ; oi < len(oldLines); oi++ {
		out = append(out, Line{Kind: Removed, Text: oldLines[oi]})
	}
	for ; ni < len(newLines); ni++ {
		out = append(out, Line{Kind: Added, Text: newLines[ni]})
	}

	return Summary{Lines: out}
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

type match struct {
	old int
	new int
}

// longestCommonSubsequence returns, in order, the index pairs of lines that
// are common to both sides.
func longestCommonSubsequence(a, b []string) []match {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return nil
	}

	table := make([][]int, n+1)
	for i := range table {
		table[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				table[i][j] = table[i+1][j+1] + 1
			} else if table[i+1][j] >= table[i][j+1] {
				table[i][j] = table[i+1][j]
			} else {
				table[i][j] = table[i][j+1]
			}
		}
	}

	var out []match
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			out = append(out, match{old: i, new: j})
			i++
			j++
		case table[i+1][j] >= table[i][j+1]:
			i++
		default:
			j++
		}
	}
	return out
}
