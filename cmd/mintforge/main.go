// mintforge provisions a fungible SPL token: it creates the mint,
// provisions the operator's holding account and premints the initial
// supply.
package main

import (
	"os"

	"github.com/solforge/mintforge/internal/cli"
	"github.com/solforge/mintforge/internal/logging"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Logger.Error().Err(err).Msg("mintforge exited with error")
		os.Exit(1)
	}
}
