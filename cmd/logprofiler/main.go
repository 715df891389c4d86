/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package main

import (
	"fmt"
	"os"
)

// logprofiler entry
func main() {
	if err := bootstrap(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "logprofiler error %+v\n", err)
		os.Exit(1)
	}
}
