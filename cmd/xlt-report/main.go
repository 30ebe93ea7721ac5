// xlt-report generates load-test reports from recorded request data.
package main

import (
	"fmt"
	"os"

	"github.com/m-ullrich/XLT/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
