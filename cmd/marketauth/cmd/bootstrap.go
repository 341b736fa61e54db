package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/marketauth/marketauth/internal/adapter/outbound/hash"
	"github.com/marketauth/marketauth/internal/adapter/outbound/sqlite"
	"github.com/marketauth/marketauth/internal/config"
	"github.com/marketauth/marketauth/internal/domain/credential"
	"github.com/marketauth/marketauth/internal/domain/identity"
	"github.com/marketauth/marketauth/internal/service"
)

var bootstrapSecretKey string

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap [email] [password]",
	Short: "Create the singleton SUPERUSER identity",
	Long: `Create the one and only SUPERUSER identity.

Requires the configured superuser secret key (--secret-key or the
MARKETAUTH_SECRETS_SUPERUSER_KEY environment variable). Fails if a
SUPERUSER already exists.

The generated secondary credential is printed exactly once; it is required
at every privileged login and is never stored in cleartext anywhere else.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		secretKey := bootstrapSecretKey
		if secretKey == "" {
			secretKey = cfg.Secrets.SuperuserKey
		}

		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		logger := newLogger(cfg.LogLevel)
		roles := service.NewRoleService(
			sqlite.NewIdentityStore(db),
			credential.NewGenerator(nil),
			identity.NewPermissionMatrix(),
			hash.NewArgon2idHasher(),
			cfg.Secrets.SuperuserKey,
			service.NewMetrics(prometheus.NewRegistry()),
			logger,
		)

		ident, err := roles.BootstrapSuperuser(cmd.Context(), secretKey, args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Printf("superuser created: id=%d email=%s\n", ident.ID, ident.Email)
		fmt.Printf("secondary credential (store securely, shown once): %s\n", ident.SecondaryCredentialValue())
		return nil
	},
}

func init() {
	bootstrapCmd.Flags().StringVar(&bootstrapSecretKey, "secret-key", "", "superuser secret key (default: secrets.superuser_key from config)")
	rootCmd.AddCommand(bootstrapCmd)
}
