package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/Khanviph/tron1/wallet"
)

func NewKeystoreCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "keystore",
		Short: "Manage encrypted keystores",
	}
	cmd.AddCommand(newKeystoreImportCmd())
	return cmd
}

func newKeystoreImportCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "import",
		Short: "Encrypt a private key into the keystore directory",
		Long:  "Read a hex private key from --private-key or stdin and store it encrypted under keystore.dir",
		RunE:  runKeystoreImport,
	}
	cmd.Flags().String("private-key", "", "Hex private key (read from stdin when empty)")
	cmd.Flags().String("password", "", "Keystore password (defaults to "+envKeystorePassword+")")
	return cmd
}

func runKeystoreImport(cmd *cobra.Command, args []string) error {
	privateKey, _ := cmd.Flags().GetString("private-key")
	password, _ := cmd.Flags().GetString("password")

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if privateKey == "" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read private key: %w", err)
		}
		privateKey = strings.TrimSpace(line)
	}
	if password == "" {
		password = os.Getenv(envKeystorePassword)
	}
	if password == "" {
		return errors.New("keystore password is required (--password or " + envKeystorePassword + ")")
	}

	w, err := wallet.NewWalletFromPrivateKey(privateKey)
	if err != nil {
		return err
	}
	km, err := wallet.NewKeystoreManager(cfg.Keystore.Dir)
	if err != nil {
		return err
	}
	path, err := km.Save(w.Address(), ethcrypto.FromECDSA(w.PrivateKey()), password)
	if err != nil {
		return err
	}

	log.Info("Keystore saved", "address", w.Address(), "path", path)
	fmt.Fprintln(cmd.OutOrStdout(), w.Address())
	return nil
}
