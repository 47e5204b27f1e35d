// Command reportctl seeds the report catalog, generates reports and
// maintains the generated-file ledger from the command line.
package main

import "memberreports/internal/cli"

func main() {
	cli.Execute()
}
