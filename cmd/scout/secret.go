package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"scout/internal/infra/config"
)

const configKeyEnv = config.KeyEnv

var encryptSecretCmd = &cobra.Command{
	Use:   "encrypt-secret",
	Short: "Encrypt a secret read from stdin for use in config.yaml",
	Long: `Read a secret from stdin and print it encrypted with the passphrase in
$SCOUT_CONFIG_KEY. Paste the output into llm.api_key or
tools.search.tavily_api_key; scout decrypts it on startup.`,
	Example: `  echo -n "$OPENAI_API_KEY" | SCOUT_CONFIG_KEY=... scout encrypt-secret`,
	Args:    cobra.NoArgs,
	RunE:    runEncryptSecret,
}

func init() {
	rootCmd.AddCommand(encryptSecretCmd)
}

func runEncryptSecret(cmd *cobra.Command, _ []string) error {
	passphrase := os.Getenv(configKeyEnv)
	if passphrase == "" {
		return fmt.Errorf("%s is not set", configKeyEnv)
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read secret: %w", err)
	}
	secret := strings.TrimSpace(line)
	if secret == "" {
		return errors.New("empty secret")
	}

	enc, err := config.EncryptValue(secret, passphrase)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "enc:"+enc)
	return nil
}
