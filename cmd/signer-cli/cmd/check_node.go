package cmd

import (
	"context"
	"fmt"
	"time"

	"signer-core/pkg/web3util"

	"github.com/spf13/cobra"
)

var checkNodeCmd = &cobra.Command{
	Use:   "check-node [ws-uri]",
	Short: "检查 websocket 节点是否可用且处于期望的网络",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, _ := cmd.Flags().GetString("network")
		if network == "" {
			network = walletConfig().ExpectedNetwork
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if web3util.IsValidEthNode(ctx, args[0], network) {
			fmt.Printf("节点可用 (%s)\n", network)
			return nil
		}
		return fmt.Errorf("节点不可用或不在 %s 网络", network)
	},
}

func init() {
	rootCmd.AddCommand(checkNodeCmd)
	checkNodeCmd.Flags().String("network", "", "期望的网络 (默认取配置 wallet.expected_network)")
}
