package intel

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenintel/internal/models"
)

const raydiumV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"

func testKey(seed byte) solana.PublicKey {
	var b [32]byte
	b[0] = seed
	b[31] = seed
	return solana.PublicKeyFromBytes(b[:])
}

type tokenHolding struct {
	owner  solana.PublicKey
	mint   solana.PublicKey
	amount float64
}

type txFixture struct {
	signer       solana.PublicKey
	programs     []string
	preLamports  uint64
	postLamports uint64
	fee          uint64
	pre          []tokenHolding
	post         []tokenHolding
	failed       bool
}

func (f txFixture) build() *rpc.GetParsedTransactionResult {
	toBalances := func(holdings []tokenHolding) []rpc.TokenBalance {
		balances := make([]rpc.TokenBalance, 0, len(holdings))
		for _, h := range holdings {
			owner := h.owner
			amount := h.amount
			balances = append(balances, rpc.TokenBalance{
				Mint:  h.mint,
				Owner: &owner,
				UiTokenAmount: &rpc.UiTokenAmount{
					UiAmount: &amount,
				},
			})
		}
		return balances
	}

	instructions := make([]*rpc.ParsedInstruction, 0, len(f.programs))
	for _, p := range f.programs {
		instructions = append(instructions, &rpc.ParsedInstruction{
			ProgramId: solana.MustPublicKeyFromBase58(p),
		})
	}

	meta := &rpc.ParsedTransactionMeta{
		Fee:               f.fee,
		PreBalances:       []uint64{f.preLamports},
		PostBalances:      []uint64{f.postLamports},
		PreTokenBalances:  toBalances(f.pre),
		PostTokenBalances: toBalances(f.post),
	}
	if f.failed {
		meta.Err = map[string]interface{}{"InstructionError": []interface{}{}}
	}

	return &rpc.GetParsedTransactionResult{
		Meta: meta,
		Transaction: &rpc.ParsedTransaction{
			Message: rpc.ParsedMessage{
				AccountKeys: []rpc.ParsedMessageAccount{
					{PublicKey: f.signer, Signer: true, Writable: true},
				},
				Instructions: instructions,
			},
		},
	}
}

func TestParserSwaps(t *testing.T) {
	mint := testKey(1)
	pool := testKey(2)
	wsol := testKey(3)
	signer := testKey(4)
	p := NewParser(mint.String(), pool.String(), wsol.String())

	t.Run("pool deltas decide buy", func(t *testing.T) {
		tx := txFixture{
			signer:       signer,
			programs:     []string{raydiumV4},
			preLamports:  10_000_000_000,
			postLamports: 7_495_000_000,
			fee:          5_000_000,
			pre: []tokenHolding{
				{pool, mint, 1_000_000},
				{pool, wsol, 500},
				{signer, mint, 0},
			},
			post: []tokenHolding{
				{pool, mint, 999_999},
				{pool, wsol, 502.5},
				{signer, mint, 1},
			},
		}.build()

		ev := p.Parse(tx, "sigA")
		require.NotNil(t, ev)
		assert.Equal(t, models.EventBuy, ev.Type)
		assert.InDelta(t, 1.0, ev.TokenAmount, 1e-9)
		assert.InDelta(t, 2.5, ev.SolAmount, 1e-9)
		assert.True(t, ev.IsPoolSwap)
		assert.Equal(t, signer.String(), ev.Signer)
	})

	t.Run("pool deltas decide sell", func(t *testing.T) {
		tx := txFixture{
			signer:       signer,
			programs:     []string{raydiumV4},
			preLamports:  10_000_000_000,
			postLamports: 11_200_000_000,
			fee:          5_000,
			pre: []tokenHolding{
				{pool, mint, 1_000_000},
				{pool, wsol, 500},
				{signer, mint, 5_000},
			},
			post: []tokenHolding{
				{pool, mint, 1_005_000},
				{pool, wsol, 498.8},
				{signer, mint, 0},
			},
		}.build()

		ev := p.Parse(tx, "sigB")
		require.NotNil(t, ev)
		assert.Equal(t, models.EventSell, ev.Type)
		assert.InDelta(t, 5_000, ev.TokenAmount, 1e-9)
		assert.InDelta(t, 1.2, ev.SolAmount, 1e-9)
	})

	t.Run("signer fallback when pool untouched", func(t *testing.T) {
		tx := txFixture{
			signer:       signer,
			programs:     []string{raydiumV4},
			preLamports:  10_000_000_000,
			postLamports: 7_999_995_000,
			fee:          5_000,
			pre:          []tokenHolding{{signer, mint, 0}},
			post:         []tokenHolding{{signer, mint, 250}},
		}.build()

		ev := p.Parse(tx, "sigC")
		require.NotNil(t, ev)
		assert.Equal(t, models.EventBuy, ev.Type)
		assert.InDelta(t, 250, ev.TokenAmount, 1e-9)
		assert.InDelta(t, 2.0, ev.SolAmount, 1e-4)
	})

	t.Run("failed transaction rejected", func(t *testing.T) {
		tx := txFixture{
			signer:   signer,
			programs: []string{raydiumV4},
			failed:   true,
			pre:      []tokenHolding{{pool, mint, 100}},
			post:     []tokenHolding{{pool, mint, 90}},
		}.build()

		assert.Nil(t, p.Parse(tx, "sigD"))
	})

	t.Run("no relevant deltas discarded", func(t *testing.T) {
		tx := txFixture{
			signer:       signer,
			preLamports:  1_000_000_000,
			postLamports: 999_995_000,
			fee:          5_000,
		}.build()

		assert.Nil(t, p.Parse(tx, "sigE"))
	})
}

func TestParserTransfers(t *testing.T) {
	mint := testKey(1)
	pool := testKey(2)
	wsol := testKey(3)
	sender := testKey(4)
	p := NewParser(mint.String(), pool.String(), wsol.String())

	t.Run("two-party movement is a transfer", func(t *testing.T) {
		receiver := testKey(5)
		tx := txFixture{
			signer:       sender,
			preLamports:  1_000_000_000,
			postLamports: 999_995_000,
			fee:          5_000,
			pre: []tokenHolding{
				{sender, mint, 800},
				{receiver, mint, 0},
			},
			post: []tokenHolding{
				{sender, mint, 300},
				{receiver, mint, 500},
			},
		}.build()

		ev := p.Parse(tx, "sigF")
		require.NotNil(t, ev)
		assert.Equal(t, models.EventTransfer, ev.Type)
		assert.InDelta(t, 500, ev.TokenAmount, 1e-9)
		assert.False(t, ev.IsPoolSwap)
	})

	t.Run("multi-sender transfer reports the largest outflow", func(t *testing.T) {
		receiver := testKey(5)
		other := testKey(9)
		tx := txFixture{
			signer:       sender,
			preLamports:  1_000_000_000,
			postLamports: 999_995_000,
			fee:          5_000,
			pre: []tokenHolding{
				{sender, mint, 800},
				{other, mint, 250},
				{receiver, mint, 0},
			},
			post: []tokenHolding{
				{sender, mint, 300},
				{other, mint, 50},
				{receiver, mint, 700},
			},
		}.build()

		ev := p.Parse(tx, "sigJ")
		require.NotNil(t, ev)
		assert.Equal(t, models.EventTransfer, ev.Type)
		assert.InDelta(t, 500, ev.TokenAmount, 1e-9)
	})

	t.Run("fan-out to three receivers upgrades to distribution", func(t *testing.T) {
		tx := txFixture{
			signer:       sender,
			preLamports:  1_000_000_000,
			postLamports: 999_995_000,
			fee:          5_000,
			pre: []tokenHolding{
				{sender, mint, 900},
				{testKey(6), mint, 0},
				{testKey(7), mint, 0},
				{testKey(8), mint, 0},
			},
			post: []tokenHolding{
				{sender, mint, 0},
				{testKey(6), mint, 300},
				{testKey(7), mint, 300},
				{testKey(8), mint, 300},
			},
		}.build()

		ev := p.Parse(tx, "sigG")
		require.NotNil(t, ev)
		assert.Equal(t, models.EventDistribution, ev.Type)
		assert.Len(t, ev.Receivers, 3)
	})
}

func TestParserLiquidityEvents(t *testing.T) {
	mint := testKey(1)
	pool := testKey(2)
	wsol := testKey(3)
	provider := testKey(4)
	p := NewParser(mint.String(), pool.String(), wsol.String())

	t.Run("lp add overrides transfer shape", func(t *testing.T) {
		tx := txFixture{
			signer:       provider,
			preLamports:  10_000_000_000,
			postLamports: 4_995_000_000,
			fee:          5_000_000,
			pre: []tokenHolding{
				{provider, mint, 10_000},
				{pool, mint, 1_000_000},
				{pool, wsol, 500},
			},
			post: []tokenHolding{
				{provider, mint, 0},
				{pool, mint, 1_010_000},
				{pool, wsol, 505},
			},
		}.build()

		ev := p.Parse(tx, "sigH")
		require.NotNil(t, ev)
		assert.Equal(t, models.EventLPAdd, ev.Type)
		assert.InDelta(t, 10_000, ev.TokenAmount, 1e-9)
		assert.InDelta(t, 5, ev.SolAmount, 1e-9)
	})

	t.Run("lp remove when pool loses both reserves", func(t *testing.T) {
		tx := txFixture{
			signer:       provider,
			preLamports:  1_000_000_000,
			postLamports: 999_995_000,
			fee:          5_000,
			pre: []tokenHolding{
				{provider, mint, 0},
				{pool, mint, 1_010_000},
				{pool, wsol, 505},
			},
			post: []tokenHolding{
				{provider, mint, 10_000},
				{pool, mint, 1_000_000},
				{pool, wsol, 500},
			},
		}.build()

		ev := p.Parse(tx, "sigI")
		require.NotNil(t, ev)
		assert.Equal(t, models.EventLPRemove, ev.Type)
		assert.InDelta(t, 10_000, ev.TokenAmount, 1e-9)
		assert.InDelta(t, 5, ev.SolAmount, 1e-9)
	})
}
