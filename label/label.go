// Package label handles label vectors: the whitespace-separated on-disk
// format and the encoding of string categories to contiguous integer codes.
package label

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Encoder maps distinct string labels to contiguous integer codes while
// keeping the code-to-class mapping recoverable. Classes are assigned codes
// in sorted order, so encoding is deterministic.
type Encoder struct {
	classes []string
	index   map[string]int
}

// Fit builds an Encoder over the distinct values in tokens.
func Fit(tokens []string) *Encoder {
	seen := make(map[string]struct{}, len(tokens))
	classes := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		classes = append(classes, t)
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &Encoder{classes: classes, index: index}
}

// Transform encodes tokens to their integer codes.
// Returns an error for tokens the encoder was not fitted on.
func (e *Encoder) Transform(tokens []string) ([]int, error) {
	codes := make([]int, len(tokens))
	for i, t := range tokens {
		code, ok := e.index[t]
		if !ok {
			return nil, fmt.Errorf("unknown label %q", t)
		}
		codes[i] = code
	}
	return codes, nil
}

// Classes returns the class names in code order.
func (e *Encoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// ReadTokens reads a whitespace-separated list of label tokens, aligned
// positionally with the point matrix it labels.
func ReadTokens(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return strings.Fields(string(data)), nil
}

// WriteInts writes labels as a newline-separated token list.
func WriteInts(w io.Writer, labels []int) error {
	var sb strings.Builder
	for _, l := range labels {
		sb.WriteString(strconv.Itoa(l))
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteMatrix writes a numeric matrix, one whitespace-separated row per
// line.
func WriteMatrix(w io.Writer, m [][]float64) error {
	var sb strings.Builder
	for _, row := range m {
		for j, v := range row {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
