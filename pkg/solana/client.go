package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	// ErrNotFound is returned when the node has no record of a transaction.
	ErrNotFound = errors.New("transaction not found")
	// ErrUnavailable is returned once all retry attempts are exhausted.
	ErrUnavailable = errors.New("rpc unavailable")
)

// SignatureInfo is one confirmed signature for the watched account.
type SignatureInfo struct {
	Signature string
	BlockTime time.Time
	Failed    bool
}

// Client is a read-only RPC client scoped to a single watched account.
type Client struct {
	rpc       *rpc.Client
	account   sol.PublicKey
	limiter   *rate.Limiter
	pageSize  int
	attempts  int
	baseDelay time.Duration
	timeout   time.Duration
}

// Options tunes retry and paging behavior.
type Options struct {
	PageSize       int
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RequestTimeout time.Duration
	RequestsPerSec float64
}

// NewClient builds a client for the given endpoint and watched account.
func NewClient(endpoint, account string, opts Options) (*Client, error) {
	pk, err := sol.PublicKeyFromBase58(account)
	if err != nil {
		return nil, fmt.Errorf("parse account %q: %w", account, err)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 25
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 2 * time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 10
	}
	return &Client{
		rpc:       rpc.New(endpoint),
		account:   pk,
		limiter:   rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		pageSize:  opts.PageSize,
		attempts:  opts.RetryAttempts,
		baseDelay: opts.RetryBaseDelay,
		timeout:   opts.RequestTimeout,
	}, nil
}

// NewSignatures returns signatures newer than since, oldest first. Entries
// that failed on chain are flagged so callers can skip them while still
// advancing their watermark past them.
func (c *Client) NewSignatures(ctx context.Context, since string) ([]SignatureInfo, error) {
	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      &c.pageSize,
		Commitment: rpc.CommitmentConfirmed,
	}
	var page []*rpc.TransactionSignature
	err := c.withRetry(ctx, "getSignaturesForAddress", func(callCtx context.Context) error {
		var callErr error
		page, callErr = c.rpc.GetSignaturesForAddressWithOpts(callCtx, c.account, opts)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	// Newest first on the wire; collect down to the watermark then reverse.
	fresh := make([]SignatureInfo, 0, len(page))
	for _, entry := range page {
		sig := entry.Signature.String()
		if since != "" && sig == since {
			break
		}
		info := SignatureInfo{Signature: sig, Failed: entry.Err != nil}
		if entry.BlockTime != nil {
			info.BlockTime = entry.BlockTime.Time()
		}
		fresh = append(fresh, info)
	}
	for i, j := 0, len(fresh)-1; i < j; i, j = i+1, j-1 {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	}
	return fresh, nil
}

// TransactionDetail fetches one transaction with parsed encoding.
func (c *Client) TransactionDetail(ctx context.Context, signature string) (*rpc.GetParsedTransactionResult, error) {
	sig, err := sol.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("parse signature %q: %w", signature, err)
	}
	maxVersion := uint64(0)
	opts := &rpc.GetParsedTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	}
	var tx *rpc.GetParsedTransactionResult
	err = c.withRetry(ctx, "getTransaction", func(callCtx context.Context) error {
		var callErr error
		tx, callErr = c.rpc.GetParsedTransaction(callCtx, sig, opts)
		if callErr != nil {
			return callErr
		}
		if tx == nil {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", signature, ErrNotFound)
		}
		return nil, err
	}
	return tx, nil
}

// withRetry runs one RPC call with rate limiting, per-attempt timeout and
// linear backoff between attempts.
func (c *Client) withRetry(ctx context.Context, method string, call func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		lastErr = call(callCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warnf("%s attempt %d/%d failed: %v", method, attempt, c.attempts, lastErr)
		if attempt < c.attempts {
			select {
			case <-time.After(time.Duration(attempt) * c.baseDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if errors.Is(lastErr, ErrNotFound) {
		return lastErr
	}
	return fmt.Errorf("%s after %d attempts: %w: %v", method, c.attempts, ErrUnavailable, lastErr)
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "not found")
}
