package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	jwtx "github.com/dropDatabas3/agentgate/internal/jwt"
	"github.com/dropDatabas3/agentgate/internal/util/atomicwrite"
)

func newKeygenCmd() *cobra.Command {
	var (
		outDir   string
		agentID  string
		printEnv bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Genera un par de claves Ed25519 en formato JWK",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeygen(cmd, outDir, agentID, printEnv)
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "keys", "directorio de salida")
	cmd.Flags().StringVar(&agentID, "agent-id", jwtx.OwnerLabel, "identificador de owner de la clave")
	cmd.Flags().BoolVar(&printEnv, "print-env", false, "imprime las claves como variables de entorno")
	return cmd
}

func runKeygen(cmd *cobra.Command, outDir, agentID string, printEnv bool) error {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}

	kid := uuid.NewString()
	private, public := jwtx.NewEd25519JWK(pub, priv, kid, agentID)

	privJSON, err := json.MarshalIndent(private, "", "  ")
	if err != nil {
		return err
	}
	pubJSON, err := json.MarshalIndent(public, "", "  ")
	if err != nil {
		return err
	}

	if printEnv {
		// Forma compacta para pegar en un .env.
		pc, _ := json.Marshal(private)
		pb, _ := json.Marshal(public)
		fmt.Fprintf(cmd.OutOrStdout(), "TOKEN_SERVICE_PRIVATE_KEY='%s'\n", pc)
		fmt.Fprintf(cmd.OutOrStdout(), "TOKEN_SERVICE_PUBLIC_KEY='%s'\n", pb)
		return nil
	}

	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return err
	}

	privPath := filepath.Join(outDir, kid+jwtx.PrivateKeySuffix)
	pubPath := filepath.Join(outDir, kid+jwtx.PublicKeySuffix)

	if err := atomicwrite.AtomicWriteFile(privPath, privJSON, 0o600); err != nil {
		return err
	}
	if err := atomicwrite.AtomicWriteFile(pubPath, pubJSON, 0o644); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "kid: %s\n", kid)
	fmt.Fprintf(cmd.OutOrStdout(), "private: %s\n", privPath)
	fmt.Fprintf(cmd.OutOrStdout(), "public:  %s\n", pubPath)
	return nil
}
