package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "agentgate",
		Short: "Servidor de autorización OAuth2 para agentes y MCP servers",
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newKeygenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
