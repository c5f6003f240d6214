package signer

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"signer-core/internal/apps"
	"signer-core/internal/wallet"

	"github.com/ethereum/go-ethereum/common"
)

var (
	testAccount = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	votingAddr  = common.HexToAddress("0x1973a9d3a3b7bd8c5bdd7d3ce1f0bc6d0a9b1271")
	tokensAddr  = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	financeAddr = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

type staticWallet struct {
	mu   sync.Mutex
	snap wallet.Snapshot
}

func connectedWallet(network string) *staticWallet {
	return &staticWallet{snap: wallet.Connected(wallet.ProviderInfo{ID: "metamask"}, testAccount, big.NewInt(1e18), 1, false, network)}
}

func (w *staticWallet) Current() wallet.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap
}

type fakeSigner struct {
	mu      sync.Mutex
	sent    []TransactionPayload
	signed  []string
	sendErr error
	signErr error
	enabled int

	// gate 非空时 SendTransaction 阻塞到 gate 关闭
	gate chan struct{}
}

func (s *fakeSigner) SendTransaction(ctx context.Context, tx TransactionPayload) (string, error) {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return "", s.sendErr
	}
	s.sent = append(s.sent, tx)
	return "0xhash" + tx.Description, nil
}

func (s *fakeSigner) PersonalSign(ctx context.Context, message string, account common.Address) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signErr != nil {
		return "", s.signErr
	}
	s.signed = append(s.signed, message)
	return "0xsig", nil
}

func (s *fakeSigner) Enable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled++
	return nil
}

func (s *fakeSigner) sentTxs() []TransactionPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TransactionPayload(nil), s.sent...)
}

func testRegistry() *apps.Registry {
	return apps.NewRegistry(
		apps.Instance{Name: "Voting", ProxyAddress: votingAddr},
		apps.Instance{Name: "Tokens", ProxyAddress: tokensAddr},
	)
}

var errUserDenied = errors.New("User denied transaction signature")
