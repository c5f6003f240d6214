package provider

import (
	"context"
	"math/big"
	"testing"

	"signer-core/internal/signer"
	"signer-core/internal/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 模拟注入式钱包的 eth / net / web3 / personal 命名空间
type fakeEth struct {
	accounts []common.Address
	sent     []sendTxArgs
}

func (s *fakeEth) Accounts() []common.Address { return s.accounts }

func (s *fakeEth) RequestAccounts() []common.Address { return s.accounts }

func (s *fakeEth) ChainId() *hexutil.Big { return (*hexutil.Big)(big.NewInt(5)) }

func (s *fakeEth) GetBalance(addr common.Address, block string) *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(1500))
}

func (s *fakeEth) GetCode(addr common.Address, block string) hexutil.Bytes {
	if addr == common.HexToAddress("0xc0") {
		return hexutil.Bytes{0x60, 0x80}
	}
	return hexutil.Bytes{}
}

func (s *fakeEth) SendTransaction(args sendTxArgs) common.Hash {
	s.sent = append(s.sent, args)
	return common.HexToHash("0xabc")
}

type fakeNet struct{}

func (fakeNet) Version() string { return "5" }

type fakeWeb3 struct{}

func (fakeWeb3) ClientVersion() string { return "MetaMask/v10.0.0" }

type fakePersonal struct{}

func (fakePersonal) Sign(data hexutil.Bytes, addr common.Address) hexutil.Bytes {
	return append(hexutil.Bytes{0x01}, data...)
}

func newRPCFixture(t *testing.T, eth *fakeEth) *RPCProvider {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", eth))
	require.NoError(t, server.RegisterName("net", fakeNet{}))
	require.NoError(t, server.RegisterName("web3", fakeWeb3{}))
	require.NoError(t, server.RegisterName("personal", fakePersonal{}))
	t.Cleanup(server.Stop)

	p := NewRPCProvider(rpc.DialInProc(server))
	t.Cleanup(p.Close)
	return p
}

func TestRPCProvider_Queries(t *testing.T) {
	account := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	p := newRPCFixture(t, &fakeEth{accounts: []common.Address{account}})
	ctx := context.Background()

	got, err := p.MainAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, account, got)

	bal, err := p.Balance(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), bal.Int64())

	isContract, err := p.IsContract(ctx, account)
	require.NoError(t, err)
	assert.False(t, isContract)
	isContract, err = p.IsContract(ctx, common.HexToAddress("0xc0"))
	require.NoError(t, err)
	assert.True(t, isContract)

	chainID, err := p.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), chainID)

	network, err := p.NetworkType(ctx)
	require.NoError(t, err)
	assert.Equal(t, "goerli", network)

	assert.Equal(t, "metamask", p.Info(ctx).ID)
}

func TestRPCProvider_NoAccount(t *testing.T) {
	p := newRPCFixture(t, &fakeEth{})

	_, err := p.MainAccount(context.Background())
	assert.ErrorIs(t, err, wallet.ErrNoAccount)

	snap := wallet.NewPoller(p, wallet.ProviderInfo{ID: "metamask"}).Poll(context.Background())
	assert.False(t, snap.IsConnected)
}

func TestRPCProvider_PollConnected(t *testing.T) {
	account := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	p := newRPCFixture(t, &fakeEth{accounts: []common.Address{account}})

	snap := wallet.NewPoller(p, wallet.ProviderInfo{ID: "metamask"}).Poll(context.Background())
	require.True(t, snap.IsConnected)
	assert.Equal(t, account, *snap.Account)
	assert.Equal(t, "goerli", snap.NetworkType)
	assert.Equal(t, int64(5), snap.ChainID)
}

func TestRPCProvider_SendTransactionAndSign(t *testing.T) {
	account := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	eth := &fakeEth{accounts: []common.Address{account}}
	p := newRPCFixture(t, eth)
	ctx := context.Background()

	hash, err := p.SendTransaction(ctx, signer.TransactionPayload{
		From:  account,
		To:    common.HexToAddress("0xb0"),
		Data:  hexutil.Bytes{0xde, 0xad},
		Value: (*hexutil.Big)(big.NewInt(7)),
	})
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0xabc").Hex(), hash)
	require.Len(t, eth.sent, 1)
	assert.Equal(t, common.HexToAddress("0xb0"), *eth.sent[0].To)
	assert.Nil(t, eth.sent[0].Gas)

	sig, err := p.PersonalSign(ctx, "hi", account)
	require.NoError(t, err)
	assert.Equal(t, "0x016869", sig)
}

func TestRPCProvider_Enable(t *testing.T) {
	p := newRPCFixture(t, &fakeEth{accounts: []common.Address{{}}})
	assert.NoError(t, wallet.Enable(context.Background(), p))
}

func TestIsMethodNotFound(t *testing.T) {
	server := rpc.NewServer()
	t.Cleanup(server.Stop)
	client := rpc.DialInProc(server)
	t.Cleanup(client.Close)

	var out []common.Address
	err := client.CallContext(context.Background(), &out, "eth_requestAccounts")
	assert.True(t, isMethodNotFound(err))
	assert.False(t, isMethodNotFound(nil))
}
