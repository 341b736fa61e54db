package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketauth/marketauth/internal/adapter/outbound/seed"
	"github.com/marketauth/marketauth/internal/adapter/outbound/sqlite"
	"github.com/marketauth/marketauth/internal/config"
	"github.com/marketauth/marketauth/internal/domain/credential"
)

var seedCmd = &cobra.Command{
	Use:   "seed [seed-file]",
	Short: "Load identities from a YAML seed file",
	Long: `Load identities from a YAML seed file into the database.

Seed entries carry Argon2id password hashes (see hash-password), never
cleartext passwords. Entries whose email already exists are skipped.
Privileged entries (ADMIN, SUPER_ADMIN) get a freshly generated secondary
credential, printed exactly once.

Example seed file:
  identities:
    - email: ops@example.com
      role: ADMIN
      password_hash: $argon2id$v=19$...
      verified: true
      admin_approval: true`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		f, err := seed.Load(args[0])
		if err != nil {
			return err
		}

		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		created, err := seed.Apply(cmd.Context(), sqlite.NewIdentityStore(db), credential.NewGenerator(nil), f)
		if err != nil {
			return err
		}

		for _, ident := range created {
			if ident.SecondaryCredential != nil {
				fmt.Printf("created %s (%s), secondary credential: %s\n", ident.Email, ident.Role, *ident.SecondaryCredential)
			} else {
				fmt.Printf("created %s (%s)\n", ident.Email, ident.Role)
			}
		}
		fmt.Printf("%d identities created, %d skipped\n", len(created), len(f.Identities)-len(created))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
