// Command flowrun loads a flow definition and drives it to completion
// in-process: no separate runtime binary, no API round trip.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
