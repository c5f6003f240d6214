package cmd

import (
	"errors"
	"fmt"
	"os"

	"signer-core/pkg/bip32"
	"signer-core/pkg/bip39"
	"signer-core/pkg/keystore"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "创建本地开发钱包",
	Long:  `生成 BIP-39 助记词，使用密码加密后保存为 Keystore 文件，并显示派生的以太坊地址。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		words, _ := cmd.Flags().GetInt("words")
		light, _ := cmd.Flags().GetBool("light")
		show, _ := cmd.Flags().GetBool("show-mnemonic")
		c := walletConfig()

		if _, err := os.Stat(c.KeystorePath); err == nil {
			return fmt.Errorf("Keystore 文件已存在: %s", c.KeystorePath)
		}

		bitSize := 256
		if words == 12 {
			bitSize = 128
		}

		// 1. 生成助记词
		mnemonicService := bip39.NewMnemonicService()
		mnemonic, err := mnemonicService.GenerateMnemonic(bitSize)
		if err != nil {
			return fmt.Errorf("生成助记词失败: %w", err)
		}

		// 2. 派生地址
		seed, err := mnemonicService.MnemonicToSeed(mnemonic, "")
		if err != nil {
			return err
		}
		w, err := bip32.NewMasterKeyFromSeed(seed)
		if err != nil {
			return fmt.Errorf("生成主密钥失败: %w", err)
		}
		path := c.DerivationPath
		if path == "" {
			path = bip32.DefaultEthPath
		}
		address, err := w.DeriveAddress(path)
		if err != nil {
			return fmt.Errorf("派生地址失败: %w", err)
		}

		// 3. 设置密码并加密
		password, err := readPassword("请设置 Keystore 密码: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("请再次输入密码: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return errors.New("两次输入的密码不一致")
		}

		scryptN, scryptP := keystore.StandardScryptN, keystore.StandardScryptP
		if light {
			scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
		}
		encrypted, err := keystore.EncryptMnemonicWithParams(mnemonic, password, scryptN, scryptP)
		if err != nil {
			return fmt.Errorf("加密失败: %w", err)
		}
		if err := encrypted.SaveToFile(c.KeystorePath); err != nil {
			return fmt.Errorf("保存 Keystore 失败: %w", err)
		}

		fmt.Println("---------------------------------------------------")
		if show {
			fmt.Printf("助记词 (Mnemonic): \n%s\n", mnemonic)
			fmt.Println("请离线备份助记词，丢失后无法恢复!")
			fmt.Println("---------------------------------------------------")
		}
		fmt.Printf("地址 (%s): %s\n", path, address.Hex())
		fmt.Printf("Keystore 已保存到: %s\n", c.KeystorePath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Int("words", 24, "助记词长度 (12 或 24)")
	initCmd.Flags().Bool("light", false, "使用轻量 scrypt 参数 (仅限开发)")
	initCmd.Flags().Bool("show-mnemonic", false, "显示生成的助记词")
}
