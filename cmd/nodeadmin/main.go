// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for nodeadmin.
//
// Usage:
//
//	go run . decommission HOST[:PORT]...
//	./nodeadmin --help
package main

import (
	"log"
	"os"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if os.Getenv("NODEADMIN_SHOW_VERSION") == "1" {
		log.Printf("nodeadmin version: %s", version)
	}

	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
