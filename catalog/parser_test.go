package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Item
		ok   bool
	}{
		{
			name: "valid app line",
			line: "APP\t[A] Chrome\t/Applications/Chrome.app",
			want: Item{Kind: "APP", Display: "[A] Chrome", Payload: "/Applications/Chrome.app"},
			ok:   true,
		},
		{
			name: "payload containing tabs is kept whole",
			line: "CMD\tEcho\techo\ta\tb",
			want: Item{Kind: "CMD", Display: "Echo", Payload: "echo\ta\tb"},
			ok:   true,
		},
		{
			name: "two fields only",
			line: "FILE\tonly-two-fields",
			ok:   false,
		},
		{
			name: "empty kind",
			line: "\tlabel\tpayload",
			ok:   false,
		},
		{
			name: "empty payload",
			line: "FILE\tlabel\t",
			ok:   false,
		},
		{
			name: "blank line",
			line: "   ",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := ParseLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, item)
			}
		})
	}
}

func TestParseSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		"APP\t[A] Chrome\t/Applications/Chrome.app",
		"FILE\tonly-two-fields",
		"",
		"FILE\t[F] chrome.log\t/tmp/chrome.log",
	}, "\n")

	res, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	// The malformed line is dropped without aborting the lines after it.
	require.Len(t, res.Items, 2)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "[A] Chrome", res.Items[0].Display)
	assert.Equal(t, "[F] chrome.log", res.Items[1].Display)
}

func TestParsePreservesInputOrder(t *testing.T) {
	input := "B\tbeta\t2\nA\talpha\t1\nC\tgamma\t3\n"

	res, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, []string{"beta", "alpha", "gamma"}, []string{
		res.Items[0].Display, res.Items[1].Display, res.Items[2].Display,
	})
	assert.Zero(t, res.Skipped)
}
