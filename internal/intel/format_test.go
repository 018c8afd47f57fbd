package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{2_500_000, "2.50M"},
		{1_000_000, "1.00M"},
		{15_300, "15.30K"},
		{1_000, "1.00K"},
		{999.5, "999.50"},
		{1, "1.00"},
		{0.123456, "0.123456"},
		{0, "0.000000"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatAmount(tc.in), "input %f", tc.in)
	}
}

func TestShortenAddress(t *testing.T) {
	assert.Equal(t, "7xKX...gAsU", ShortenAddress("7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"))
	assert.Equal(t, "short", ShortenAddress("short"))
}

func TestTypeEmoji(t *testing.T) {
	assert.Equal(t, "🐋🟢", TypeEmoji("whale_buy"))
	assert.Equal(t, "📊", TypeEmoji("something_else"))
}
