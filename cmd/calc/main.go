// Command calc evaluates calculator expressions with decimal arithmetic.
package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd.SetArgs(separateExpressions(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
