package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizedQuoteSucceeded(t *testing.T) {
	assert.True(t, SuccessQuote("1inch", "1000", nil).Succeeded())
	assert.False(t, ErrorQuote("1inch", "down").Succeeded())
	assert.False(t, NormalizedQuote{SourceName: "1inch"}.Succeeded())
}

func TestOutputAmountInt(t *testing.T) {
	n, ok := SuccessQuote("1inch", "123456789012345678901234567890", nil).OutputAmountInt()
	require.True(t, ok)
	assert.Equal(t, "123456789012345678901234567890", n.String())

	_, ok = SuccessQuote("1inch", "12.5", nil).OutputAmountInt()
	assert.False(t, ok)

	_, ok = SuccessQuote("1inch", "-5", nil).OutputAmountInt()
	assert.False(t, ok)

	_, ok = ErrorQuote("1inch", "down").OutputAmountInt()
	assert.False(t, ok)
}

func TestIsCrossChain(t *testing.T) {
	assert.False(t, QuoteRequest{ChainID: 1}.IsCrossChain())
	assert.False(t, QuoteRequest{ChainID: 1, DstChainID: 1}.IsCrossChain())
	assert.True(t, QuoteRequest{ChainID: 1, DstChainID: 137}.IsCrossChain())
}
