package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ligun0805/mint-sniper/internal/config"
	"github.com/ligun0805/mint-sniper/internal/magiceden"
	core "github.com/ligun0805/mint-sniper/internal/mintcore"
)

func main() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
		With().Timestamp().Logger()

	ctx := context.Background()
	st := config.Load()

	ec, chainID, rpcURL, err := dialFirst(ctx, st.RPCURLs, st.ChainID)
	must(err, "dial RPC")

	fmt.Println("=== CONFIG (.env) ===")
	fmt.Println("RPC_URL           :", rpcURL)
	fmt.Println("CHAIN_ID          :", chainID.String())
	fmt.Println("MINT_API_URL      :", orDefault(st.MintAPIURL, magiceden.DefaultBaseURL))
	fmt.Println("GasMultiplier     :", st.GasMultiplier)
	fmt.Println("MaxConcurrent     :", st.MaxConcurrent)
	fmt.Println("MaxRetry          :", st.MaxRetry)
	fmt.Println("RetryDelayMs      :", st.RetryDelayMs)
	fmt.Println("SafetyMarginMs    :", st.SafetyMarginMs)
	fmt.Println("WaitForReceipt    :", st.WaitForReceipt)
	fmt.Println("=====================")

	reader := bufio.NewReader(os.Stdin)

	pkHex := readPassword("Enter the minting wallet private key: ")
	if strings.TrimSpace(pkHex) == "" {
		die("private key is empty")
	}

	rawLink := readLine(reader, "Enter the collection link: ")
	link, err := magiceden.ParseLink(rawLink)
	if err != nil {
		log.Error().Err(err).Msg("bad collection link")
		os.Exit(0)
	}

	me := magiceden.NewClient(st.MintAPIURL, log)
	offer, stages, err := me.FetchOffer(ctx, link)
	if err != nil {
		log.Error().Err(err).Msg("no mint offer for this link")
		os.Exit(0)
	}
	if stages == nil {
		stages, err = me.FetchStages(ctx, offer.CollectionID)
		if err != nil {
			log.Error().Err(err).Str("collection", offer.CollectionName).Msg("no stages")
			os.Exit(0)
		}
	}
	fmt.Println("Collection :", offer.CollectionName, "|", offer.Protocol)

	// launchpad links carry no contract; the collection id is one
	contract := link.Contract
	if common.IsHexAddress(offer.CollectionID) {
		contract = common.HexToAddress(offer.CollectionID)
	}
	if contract == (common.Address{}) {
		log.Error().Str("collection", offer.CollectionName).Msg("offer carries no mint contract address")
		os.Exit(0)
	}

	count, err := core.ParseMintCount(readLine(reader, "How many mints? "))
	if err != nil {
		log.Error().Err(err).Msg("invalid mint count")
		os.Exit(0)
	}

	params := core.RunParams{
		Offer:         offer,
		Stages:        stages,
		Contract:      contract,
		MintCount:     count,
		Choose:        promptStage(reader),
		ChainID:       chainID,
		PrivateKeyHex: pkHex,
		GasMultiplier: st.GasMultiplier,
		SafetyMargin:  time.Duration(st.SafetyMarginMs) * time.Millisecond,
		Dispatch: core.DispatchConfig{
			MaxConcurrent:  st.MaxConcurrent,
			MaxRetry:       st.MaxRetry,
			RetryDelay:     time.Duration(st.RetryDelayMs) * time.Millisecond,
			SendTimeout:    time.Duration(st.SendTimeoutMs) * time.Millisecond,
			WaitForReceipt: st.WaitForReceipt,
		},
		Log: log,
	}

	report, err := core.Run(ctx, core.NewEthClient(ec), params)
	if err != nil {
		if report != nil && report.State == core.StateAborted {
			// validation / data aborts are a normal terminal outcome
			os.Exit(0)
		}
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}

	fmt.Println("\n=== RESULT ===")
	for _, o := range report.Outcomes {
		state := "FAILED"
		if o.Confirmed {
			state = "CONFIRMED"
		}
		fmt.Printf("nonce %d | %s | attempts %d | %s\n", o.Nonce, o.Hash.Hex(), o.Attempts, state)
	}
	fmt.Printf("%s | state: %s\n", report.Reason, report.State)
}

// promptStage lists the schedule and reads a 1-based choice.
func promptStage(reader *bufio.Reader) core.StageChooser {
	return func(stages []core.Stage) (int, error) {
		fmt.Println("\nUpcoming stages:")
		for i, s := range stages {
			at := time.UnixMilli(int64(s.StartTime * 1000)).Format(time.RFC3339)
			fmt.Printf("  %d) starts %s | price %s ETH\n", i+1, at, core.FmtETH(s.PriceWei))
		}
		raw := readLine(reader, "Pick a stage: ")
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", core.ErrBadStageChoice, raw)
		}
		return n, nil
	}
}

// dialFirst tries each RPC endpoint until one answers ChainID.
func dialFirst(ctx context.Context, urls []string, chainIDStr string) (*ethclient.Client, *big.Int, string, error) {
	var lastErr error
	for _, u := range urls {
		ec, err := ethclient.Dial(u)
		if err != nil {
			lastErr = err
			continue
		}
		var chainID *big.Int
		if chainIDStr != "" {
			chainID = mustBig(chainIDStr)
		} else {
			chainID, err = ec.ChainID(ctx)
			if err != nil {
				lastErr = err
				continue
			}
		}
		return ec, chainID, u, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no RPC endpoints configured")
	}
	return nil, nil, "", lastErr
}

func orDefault(s, d string) string { if strings.TrimSpace(s) == "" { return d }; return s }
func must(err error, msg string) { if err != nil { die(msg + ": " + err.Error()) } }
func die(msg string) { fmt.Fprintln(os.Stderr, msg); os.Exit(1) }
func mustBig(s string) *big.Int { z, ok := new(big.Int), false; s = strings.TrimSpace(s); if strings.HasPrefix(s, "0x") { z, ok = z.SetString(s[2:], 16) } else { z, ok = z.SetString(s, 10) }; if !ok { return big.NewInt(0) }; return z }

func readLine(r *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	t, _ := r.ReadString('\n')
	return strings.TrimSpace(t)
}

func readPassword(prompt string) string {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil { die("failed to read private key: " + err.Error()) }
	return strings.TrimSpace(string(b))
}
