// Command pdb drives desktop windows locally or through a pdbd daemon.
package main

import (
	"os"

	"github.com/frudas24/pdb/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
