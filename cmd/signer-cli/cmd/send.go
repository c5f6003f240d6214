package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signer-core/internal/signer"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "发送交易 (eth_sendTransaction)",
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetString("to")
		value, _ := cmd.Flags().GetString("value")
		data, _ := cmd.Flags().GetString("data")
		gas, _ := cmd.Flags().GetUint64("gas")

		if !common.IsHexAddress(to) {
			return fmt.Errorf("不是合法的以太坊地址: %s", to)
		}
		amount, err := decimal.NewFromString(value)
		if err != nil || amount.IsNegative() {
			return fmt.Errorf("金额格式错误: %s", value)
		}
		var input hexutil.Bytes
		if data != "" {
			if input, err = hexutil.Decode(data); err != nil {
				return fmt.Errorf("data 格式错误: %w", err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		web3, err := openWeb3(ctx)
		if err != nil {
			return err
		}
		defer web3.Close()
		if web3.Signer == nil {
			return errors.New("未配置钱包提供方")
		}

		from, err := web3.Provider.MainAccount(ctx)
		if err != nil {
			return fmt.Errorf("获取账户失败: %w", err)
		}

		// ETH -> wei
		wei := amount.Shift(18).BigInt()
		tx := signer.TransactionPayload{
			From:  from,
			To:    common.HexToAddress(to),
			Data:  input,
			Value: (*hexutil.Big)(wei),
			Gas:   hexutil.Uint64(gas),
		}

		fmt.Println("\n================ 待发送交易 ================")
		fmt.Printf("From:       %s\n", from.Hex())
		fmt.Printf("To:         %s\n", tx.To.Hex())
		fmt.Printf("Amount:     %s ETH\n", amount.String())
		if len(input) > 0 {
			fmt.Printf("Data:       %s\n", input.String())
		}
		fmt.Println("============================================")

		hash, err := web3.Signer.SendTransaction(ctx, tx)
		if err != nil {
			return fmt.Errorf("发送失败: %w", err)
		}
		fmt.Printf("\n发送成功!\nTxHash: %s\n", hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().String("to", "", "接收地址")
	sendCmd.Flags().String("value", "0", "金额 (ETH)")
	sendCmd.Flags().String("data", "", "调用数据 (0x 开头的十六进制)")
	sendCmd.Flags().Uint64("gas", 0, "Gas 上限 (0 表示自动估算)")
	_ = sendCmd.MarkFlagRequired("to")
}
