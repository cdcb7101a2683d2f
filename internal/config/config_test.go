package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	st := Load()
	assert.NotEmpty(t, st.RPCURLs)
	assert.Equal(t, 2.5, st.GasMultiplier)
	assert.Equal(t, 10, st.MaxConcurrent)
	assert.Equal(t, 3, st.MaxRetry)
	assert.True(t, st.WaitForReceipt)
}

func TestLoad_KeyCaseFallbackAndCSV(t *testing.T) {
	t.Setenv("rpc_url", "https://a.example, https://b.example")
	t.Setenv("MAX_RETRY", "5")
	t.Setenv("wait_for_receipt", "no")
	t.Setenv("GAS_MULTIPLIER", "3.0")

	st := Load()
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, st.RPCURLs)
	assert.Equal(t, 5, st.MaxRetry)
	assert.False(t, st.WaitForReceipt)
	assert.Equal(t, 3.0, st.GasMultiplier)
}

func TestLoad_GarbageFallsBackToDefault(t *testing.T) {
	t.Setenv("MAX_CONCURRENT", "lots")
	st := Load()
	assert.Equal(t, 10, st.MaxConcurrent)
}
