package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPriceImpact(t *testing.T) {
	tests := []struct {
		ratio string
		want  string
	}{
		{"0", "0%"},
		{"0.00007998969070672714", "<0.01%"},
		{"-0.00007998969070672714", "<-0.01%"},
		{"0.0001", "0.01%"},
		{"0.001234", "0.12%"},
		{"-0.005", "-0.50%"},
		{"0.031415", "3.1%"},
		{"-0.031415", "-3.1%"},
		{"0.0999", "10.0%"},
		{"0.10999", "11%"},
		{"-0.25", "-25%"},
		{"1.5", "150%"},
	}
	for _, tt := range tests {
		t.Run(tt.ratio, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPriceImpact(dec(tt.ratio)))
		})
	}
}

func TestFormatPriceImpactString(t *testing.T) {
	got, err := FormatPriceImpactString(" 0.031415 ")
	require.NoError(t, err)
	assert.Equal(t, "3.1%", got)

	_, err = FormatPriceImpactString("three percent")
	assert.Error(t, err)
}
