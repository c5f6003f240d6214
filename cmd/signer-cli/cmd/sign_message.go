package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var signMessageCmd = &cobra.Command{
	Use:   "sign-message [message]",
	Short: "使用当前账户签名消息 (personal_sign)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		web3, err := openWeb3(ctx)
		if err != nil {
			return err
		}
		defer web3.Close()
		if web3.Signer == nil {
			return errors.New("未配置钱包提供方")
		}

		account, err := web3.Provider.MainAccount(ctx)
		if err != nil {
			return fmt.Errorf("获取账户失败: %w", err)
		}

		fmt.Println("\n================ 待签名消息 ================")
		fmt.Printf("Account:    %s\n", account.Hex())
		fmt.Printf("Message:    %s\n", args[0])
		fmt.Println("============================================")

		sig, err := web3.Signer.PersonalSign(ctx, args[0], account)
		if err != nil {
			return fmt.Errorf("签名失败: %w", err)
		}
		fmt.Printf("\n签名成功!\nSignature: %s\n", sig)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signMessageCmd)
}
