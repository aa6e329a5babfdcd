// Command gatewayctl runs reconciliation passes from the command line and
// manages the gateway configuration file.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
