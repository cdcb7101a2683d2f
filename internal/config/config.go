package config

import (
	"os"
	"strings"
	"strconv"
)

// Settings keeps all configuration options.
// Naming mirrors the env keys; both UPPER_CASE and lower_case work.
type Settings struct {
	RPCURLs    []string
	ChainID    string // keep as string, parsed by the CLI
	MintAPIURL string

	GasMultiplier  float64
	MaxConcurrent  int
	MaxRetry       int
	RetryDelayMs   int64
	SafetyMarginMs int64
	SendTimeoutMs  int64
	WaitForReceipt bool
}

// Load reads settings from environment supporting both UPPER_CASE and lower_case keys.
func Load() Settings {
	get := func(keys []string, def string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" { return v }
		}
		return def
	}
	getInt := func(keys []string, def int) int {
		s := get(keys, "")
		if s == "" { return def }
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil { return n }
		return def
	}
	getInt64 := func(keys []string, def int64) int64 {
		s := get(keys, "")
		if s == "" { return def }
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil { return n }
		return def
	}
	getFloat := func(keys []string, def float64) float64 {
		s := get(keys, "")
		if s == "" { return def }
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil { return n }
		return def
	}
	getBool := func(keys []string, def bool) bool {
		s := strings.ToLower(get(keys, ""))
		if s == "" { return def }
		return s == "1" || s == "true" || s == "yes" || s == "on"
	}
	splitCSV := func(s string) []string {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" { out = append(out, p) }
		}
		return out
	}

	st := Settings{}
	st.RPCURLs    = splitCSV(get([]string{"rpc_url", "RPC_URL"}, "https://testnet-rpc.monad.xyz"))
	st.ChainID    = get([]string{"chain_id", "CHAIN_ID"}, "")
	st.MintAPIURL = get([]string{"mint_api_url", "MINT_API_URL"}, "")

	st.GasMultiplier  = getFloat([]string{"gas_multiplier", "GAS_MULTIPLIER"}, 2.5)
	st.MaxConcurrent  = getInt([]string{"max_concurrent", "MAX_CONCURRENT"}, 10)
	st.MaxRetry       = getInt([]string{"max_retry", "MAX_RETRY"}, 3)
	st.RetryDelayMs   = getInt64([]string{"retry_delay_ms", "RETRY_DELAY_MS"}, 300)
	st.SafetyMarginMs = getInt64([]string{"safety_margin_ms", "SAFETY_MARGIN_MS"}, 50)
	st.SendTimeoutMs  = getInt64([]string{"send_timeout_ms", "SEND_TIMEOUT_MS"}, 15000)
	st.WaitForReceipt = getBool([]string{"wait_for_receipt", "WAIT_FOR_RECEIPT"}, true)

	return st
}
