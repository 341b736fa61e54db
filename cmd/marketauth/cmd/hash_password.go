package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketauth/marketauth/internal/adapter/outbound/hash"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Generate an Argon2id hash for a seed file entry",
	Long: `Generate an Argon2id hash of a password for use in a seed file.

The output is PHC format, usable directly in the identities.password_hash
field of a seed file.

Example:
  marketauth hash-password "ops-password"
  # Output: $argon2id$v=19$m=48128,t=1,p=1$...

Security note: the password will appear in shell history. Consider
clearing history after use or passing an environment variable:
  marketauth hash-password "$OPS_PASSWORD"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hasher := hash.NewArgon2idHasher()
		hashed, err := hasher.Hash(args[0])
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		fmt.Println(hashed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}
