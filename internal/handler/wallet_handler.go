package handler

import (
	"signer-core/internal/handler/response"
	"signer-core/internal/wallet"
	"signer-core/pkg/web3util"

	"github.com/gin-gonic/gin"
)

// WalletView 当前钱包快照 (wallet.Context)
type WalletView interface {
	Current() wallet.Snapshot
}

type WalletHandler struct {
	wallet          WalletView
	expectedNetwork string
}

func NewWalletHandler(wv WalletView, expectedNetwork string) *WalletHandler {
	return &WalletHandler{wallet: wv, expectedNetwork: expectedNetwork}
}

// walletStatus 钱包状态 (带格式化字段)
type walletStatus struct {
	wallet.Snapshot
	ShortAccount    string `json:"shortAccount,omitempty"`
	BalanceWei      string `json:"balanceWei"`
	BalanceEth      string `json:"balanceEth,omitempty"`
	NetworkMismatch bool   `json:"networkMismatch"`
	BlockTimeMs     int64  `json:"blockTimeMs"`
}

// Status 当前钱包连接状态
func (h *WalletHandler) Status(c *gin.Context) {
	snap := h.wallet.Current()
	balance := snap.BalanceOrUnknown()

	st := walletStatus{
		Snapshot:    snap,
		BalanceWei:  balance.String(),
		BlockTimeMs: wallet.BlockTime(snap.NetworkType).Milliseconds(),
	}
	if snap.IsConnected {
		st.ShortAccount = web3util.ShortenAddress(snap.AccountHex(), 4)
	}
	if !web3util.IsUnknownBalance(balance) {
		st.BalanceEth = web3util.FormatBalance(balance, 18, 3)
	}
	if h.expectedNetwork != "" {
		st.NetworkMismatch = wallet.HasNetworkMismatch(snap, h.expectedNetwork)
	}
	response.Success(c, st)
}
