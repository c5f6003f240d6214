package provider

import (
	"context"
	"math/big"
	"testing"

	"signer-core/internal/signer"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

type fakeBackend struct {
	estimated bool
	sent      []*types.Transaction
}

func (b *fakeBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return big.NewInt(42), nil
}

func (b *fakeBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return nil, nil
}

func (b *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(1337), nil }

func (b *fakeBackend) NetworkID(ctx context.Context) (*big.Int, error) { return big.NewInt(1337), nil }

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 3, nil
}

func (b *fakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1e9), nil
}

func (b *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: big.NewInt(10e9)}, nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	b.estimated = true
	return 21000, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.sent = append(b.sent, tx)
	return nil
}

func newLocalFixture(t *testing.T) (*LocalProvider, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{}
	p, err := NewLocalProviderFromMnemonic(backend, testMnemonic, "")
	require.NoError(t, err)
	return p, backend
}

func TestLocalProvider_Account(t *testing.T) {
	p, _ := newLocalFixture(t)

	account, err := p.MainAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x9858EfFD232B4033E47d90003D41EC34EcaEda94"), account)

	network, err := p.NetworkType(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "private", network)
}

func TestLocalProvider_PersonalSignRecovers(t *testing.T) {
	p, _ := newLocalFixture(t)

	sigHex, err := p.PersonalSign(context.Background(), "hello signer", p.Address())
	require.NoError(t, err)

	sig, err := hexutil.Decode(sigHex)
	require.NoError(t, err)
	require.Len(t, sig, crypto.SignatureLength)
	assert.Contains(t, []byte{27, 28}, sig[crypto.RecoveryIDOffset])

	sig[crypto.RecoveryIDOffset] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash([]byte("hello signer")), sig)
	require.NoError(t, err)
	assert.Equal(t, p.Address(), crypto.PubkeyToAddress(*pub))
}

func TestLocalProvider_PersonalSignUnknownAccount(t *testing.T) {
	p, _ := newLocalFixture(t)

	_, err := p.PersonalSign(context.Background(), "x", common.HexToAddress("0x01"))
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestLocalProvider_SendTransaction(t *testing.T) {
	p, backend := newLocalFixture(t)

	hash, err := p.SendTransaction(context.Background(), signer.TransactionPayload{
		From:  p.Address(),
		To:    common.HexToAddress("0xb0"),
		Value: (*hexutil.Big)(big.NewInt(100)),
	})
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)
	assert.True(t, backend.estimated)

	tx := backend.sent[0]
	assert.Equal(t, tx.Hash().Hex(), hash)
	assert.Equal(t, uint64(3), tx.Nonce())
	assert.Equal(t, uint64(21000), tx.Gas())
	assert.Equal(t, big.NewInt(21e9), tx.GasFeeCap())

	from, err := types.Sender(types.NewLondonSigner(big.NewInt(1337)), tx)
	require.NoError(t, err)
	assert.Equal(t, p.Address(), from)
}

func TestLocalProvider_SendTransactionWithGas(t *testing.T) {
	p, backend := newLocalFixture(t)

	_, err := p.SendTransaction(context.Background(), signer.TransactionPayload{
		To:  common.HexToAddress("0xb0"),
		Gas: 50000,
	})
	require.NoError(t, err)
	assert.False(t, backend.estimated)
	assert.Equal(t, uint64(50000), backend.sent[0].Gas())
}

func TestLocalProvider_RejectsForeignSender(t *testing.T) {
	p, backend := newLocalFixture(t)

	_, err := p.SendTransaction(context.Background(), signer.TransactionPayload{
		From: common.HexToAddress("0x01"),
		To:   common.HexToAddress("0xb0"),
	})
	assert.ErrorIs(t, err, ErrUnknownAccount)
	assert.Empty(t, backend.sent)
}
