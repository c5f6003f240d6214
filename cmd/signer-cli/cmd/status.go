package cmd

import (
	"context"
	"fmt"
	"time"

	"signer-core/internal/wallet"
	"signer-core/pkg/web3util"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "查看钱包连接状态",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		web3, err := openWeb3(ctx)
		if err != nil {
			return err
		}
		defer web3.Close()

		if web3.Provider == nil {
			fmt.Println("未配置钱包提供方 (You need to be connected to a Web3 instance)")
			return nil
		}

		snap := wallet.NewPoller(web3.Provider, web3.Info).Poll(ctx)
		printSnapshot(snap)
		return nil
	},
}

func printSnapshot(s wallet.Snapshot) {
	fmt.Println("\n================ 钱包状态 ================")
	fmt.Printf("Provider:   %s (%s)\n", s.ProviderInfo.Name, s.ProviderInfo.ID)
	if !s.IsConnected {
		fmt.Println("Account:    未连接 (账户未解锁或未授权)")
		fmt.Println("==========================================")
		return
	}

	balance := "unknown"
	if b := s.BalanceOrUnknown(); !web3util.IsUnknownBalance(b) {
		balance = web3util.FormatBalance(b, 18, 6) + " ETH"
	}
	fmt.Printf("Account:    %s (%s)\n", s.AccountHex(), web3util.ShortenAddress(s.AccountHex(), 4))
	fmt.Printf("Balance:    %s\n", balance)
	fmt.Printf("Contract:   %t\n", s.IsContract)
	fmt.Printf("Network:    %s (chainId %d, block time %s)\n", s.NetworkType, s.ChainID, wallet.BlockTime(s.NetworkType))

	if expected := walletConfig().ExpectedNetwork; expected != "" && wallet.HasNetworkMismatch(s, expected) {
		fmt.Printf("Warning:    钱包网络与期望网络 %s 不一致\n", expected)
	}
	fmt.Println("==========================================")
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
