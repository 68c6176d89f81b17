// adexit lints declarative ad exit configs and replays clicks against them.
package main

import (
	"os"

	"github.com/hupe1980/adexit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
