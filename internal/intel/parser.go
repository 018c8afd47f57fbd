// Package intel turns raw chain transactions into classified trading
// intelligence: parsing, wallet ledger, classification, daily rollups.
package intel

import (
	"math"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go/rpc"

	"tokenintel/internal/models"
)

// Known swap venue and router program ids.
var defaultDexPrograms = []string{
	"PumpkiNVjB71jFeXi3rGLcGNxBFDUAhxHnsFTBm7mZT", // PumpSwap AMM
	"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P", // pump.fun bonding curve
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8", // Raydium V4
	"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4",  // Jupiter V6
	"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc",  // Orca Whirlpool
	"CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK", // Raydium CLMM
	"routeUGWgWzqBWFcrCfv8tritsqukccJPu3q5GPP3xS",  // Raydium route
	"proVF4pMXVaYqmy4NjniPh4pqKNfMmsihgd4wdkCX3u",  // pump.fun swap router
}

// deltaEpsilon separates intentional balance movement from rent and dust.
const deltaEpsilon = 0.001

// Parser reduces one parsed transaction to its economic effect on the
// tracked token. It is stateless and safe for concurrent use.
type Parser struct {
	mint     string
	pool     string
	wsolMint string
	dex      map[string]struct{}
}

// NewParser builds a parser for one token mint and its pool account.
func NewParser(mint, pool, wsolMint string) *Parser {
	dex := make(map[string]struct{}, len(defaultDexPrograms))
	for _, p := range defaultDexPrograms {
		dex[p] = struct{}{}
	}
	return &Parser{mint: mint, pool: pool, wsolMint: wsolMint, dex: dex}
}

// Parse returns the structured event for a transaction, or nil when the
// transaction failed on chain or carries no relevant balance movement.
func (p *Parser) Parse(tx *rpc.GetParsedTransactionResult, signature string) *models.ParsedEvent {
	if tx == nil || tx.Meta == nil || tx.Transaction == nil {
		return nil
	}
	meta := tx.Meta
	if meta.Err != nil {
		return nil
	}
	msg := tx.Transaction.Message

	signer := ""
	signerIdx := -1
	for i, key := range msg.AccountKeys {
		if key.Signer {
			signer = key.PublicKey.String()
			signerIdx = i
			break
		}
	}
	if signer == "" && len(msg.AccountKeys) > 0 {
		signer = msg.AccountKeys[0].PublicKey.String()
		signerIdx = 0
	}
	if signer == "" {
		return nil
	}

	programs := map[string]struct{}{}
	for _, ix := range msg.Instructions {
		if ix != nil {
			programs[ix.ProgramId.String()] = struct{}{}
		}
	}
	for _, inner := range meta.InnerInstructions {
		for _, ix := range inner.Instructions {
			if ix != nil {
				programs[ix.ProgramId.String()] = struct{}{}
			}
		}
	}
	isSwap := false
	programList := make([]string, 0, len(programs))
	for id := range programs {
		programList = append(programList, id)
		if _, ok := p.dex[id]; ok {
			isSwap = true
		}
	}

	// Signer lamports delta with the fee added back, since the fee is a
	// cost of inclusion rather than a trade signal.
	solChange := 0.0
	if signerIdx >= 0 && signerIdx < len(meta.PreBalances) && signerIdx < len(meta.PostBalances) {
		solChange = (float64(meta.PostBalances[signerIdx]) - float64(meta.PreBalances[signerIdx])) / 1e9
		solChange += float64(meta.Fee) / 1e9
	}

	tokenDeltas := p.ownerDeltas(meta, msg.AccountKeys, p.mint)
	wsolDeltas := p.ownerDeltas(meta, msg.AccountKeys, p.wsolMint)

	signerTokenChange := tokenDeltas[signer]
	poolTokenChange := tokenDeltas[p.pool]
	poolSolChange := wsolDeltas[p.pool]

	solAmount := math.Abs(solChange)
	if isSwap && math.Abs(poolSolChange) > 0 {
		solAmount = math.Abs(poolSolChange)
	}

	eventType := models.EventUnknown
	tokenAmount := 0.0

	if isSwap {
		switch {
		case poolTokenChange < 0 && poolSolChange > 0:
			// Pool shed tokens and gained SOL: someone bought.
			eventType = models.EventBuy
			tokenAmount = math.Abs(poolTokenChange)
		case poolTokenChange > 0 && poolSolChange < 0:
			eventType = models.EventSell
			tokenAmount = math.Abs(poolTokenChange)
		case signerTokenChange > 0 && solChange < -deltaEpsilon:
			eventType = models.EventBuy
			tokenAmount = signerTokenChange
		case signerTokenChange < 0 && solChange > deltaEpsilon:
			eventType = models.EventSell
			tokenAmount = math.Abs(signerTokenChange)
		}
	}

	if eventType == models.EventUnknown && !isSwap {
		changes := map[string]float64{}
		for owner, delta := range tokenDeltas {
			if math.Abs(delta) > deltaEpsilon {
				changes[owner] = delta
			}
		}
		if len(changes) >= 2 {
			eventType = models.EventTransfer
			// Largest outflow, so multi-sender transfers report a stable amount.
			for _, delta := range changes {
				if delta < 0 && math.Abs(delta) > tokenAmount {
					tokenAmount = math.Abs(delta)
				}
			}
		}
		// A movement of both pool reserves without a swap venue is a
		// liquidity event, even when it also looks transfer-shaped.
		if _, poolMoved := changes[p.pool]; poolMoved && math.Abs(poolSolChange) > 0 {
			if poolTokenChange > 0 {
				eventType = models.EventLPAdd
			} else {
				eventType = models.EventLPRemove
			}
			tokenAmount = math.Abs(poolTokenChange)
			solAmount = math.Abs(poolSolChange)
		}
	}

	var receivers []models.Receiver
	for owner, delta := range tokenDeltas {
		if delta > 0 && owner != p.pool {
			receivers = append(receivers, models.Receiver{Owner: owner, Amount: delta})
		}
	}
	if eventType == models.EventTransfer && len(receivers) >= 3 {
		eventType = models.EventDistribution
	}
	if len(receivers) < 2 {
		receivers = nil
	}

	if eventType == models.EventUnknown && solAmount == 0 && tokenAmount == 0 {
		return nil
	}

	blockTime := time.Time{}
	if tx.BlockTime != nil {
		blockTime = tx.BlockTime.Time()
	}
	return &models.ParsedEvent{
		Signature:   signature,
		BlockTime:   blockTime,
		Signer:      signer,
		Type:        eventType,
		SolAmount:   solAmount,
		TokenAmount: tokenAmount,
		IsPoolSwap:  isSwap,
		Programs:    programList,
		Receivers:   receivers,
	}
}

// ownerDeltas aggregates per-owner balance change for one mint across the
// pre/post token balance sets.
func (p *Parser) ownerDeltas(meta *rpc.ParsedTransactionMeta, keys []rpc.ParsedMessageAccount, mint string) map[string]float64 {
	deltas := map[string]float64{}
	apply := func(balances []rpc.TokenBalance, sign float64) {
		for _, tb := range balances {
			if tb.Mint.String() != mint {
				continue
			}
			owner := ""
			if tb.Owner != nil {
				owner = tb.Owner.String()
			} else if int(tb.AccountIndex) < len(keys) {
				owner = keys[tb.AccountIndex].PublicKey.String()
			}
			if owner == "" {
				continue
			}
			deltas[owner] += sign * uiAmount(tb.UiTokenAmount)
		}
	}
	apply(meta.PreTokenBalances, -1)
	apply(meta.PostTokenBalances, 1)
	for owner, delta := range deltas {
		if delta == 0 {
			delete(deltas, owner)
		}
	}
	return deltas
}

func uiAmount(a *rpc.UiTokenAmount) float64 {
	if a == nil {
		return 0
	}
	if a.UiAmount != nil {
		return *a.UiAmount
	}
	v, _ := strconv.ParseFloat(a.UiAmountString, 64)
	return v
}
