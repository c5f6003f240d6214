package cmd

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"signer-core/internal/provider"
	"signer-core/pkg/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagProvider string
	flagRPC      string
	flagKeystore string
	flagPath     string
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "signer-cli",
	Short: "签名钱包命令行工具",
	Long: `查看钱包连接状态、签名消息、发送交易。
支持通过 JSON-RPC 连接注入式钱包，或使用本地 Keystore 开发钱包。`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Init()
	},
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "钱包提供方: rpc / local (默认取配置 wallet.provider)")
	rootCmd.PersistentFlags().StringVar(&flagRPC, "rpc", "", "节点或钱包 RPC 地址 (默认取配置 wallet.rpc_url)")
	rootCmd.PersistentFlags().StringVarP(&flagKeystore, "keystore", "k", "", "Keystore 文件路径 (默认取配置 wallet.keystore_path)")
	rootCmd.PersistentFlags().StringVar(&flagPath, "path", "", "派生路径 (默认取配置 wallet.derivation_path)")
}

// walletConfig 配置文件 + 命令行覆盖
func walletConfig() config.WalletConfig {
	c := config.Global.Wallet
	if flagProvider != "" {
		c.Provider = flagProvider
	}
	if flagRPC != "" {
		c.RpcUrl = flagRPC
	}
	if flagKeystore != "" {
		c.KeystorePath = flagKeystore
	}
	if flagPath != "" {
		c.DerivationPath = flagPath
	}
	return c
}

// openWeb3 本地钱包未配置密码时从终端读取
func openWeb3(ctx context.Context) (*provider.Web3, error) {
	c := walletConfig()
	if c.Provider == provider.KindLocal && c.Mnemonic == "" && c.Password == "" {
		password, err := readPassword("请输入 Keystore 密码: ")
		if err != nil {
			return nil, err
		}
		c.Password = password
	}
	return provider.FromConfig(ctx, c)
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}
	return string(b), nil
}
