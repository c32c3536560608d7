package main

import "github.com/jhoicas/billing-reconciliation/cmd/ledgerctl/cmd"

func main() {
	cmd.Execute()
}
