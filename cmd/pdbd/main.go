// Package main starts the pdb daemon.
package main

import "flag"

// main is the entrypoint for the pdb daemon.
func main() {
	var f flags
	flag.BoolVar(&f.debug, "debug", false, "Enable verbose per-frame logging")
	flag.StringVar(&f.addr, "addr", "", "TCP listen address (overrides PDB_LISTEN_ADDR)")
	flag.StringVar(&f.http, "http", "", "HTTP gateway address (overrides PDB_HTTP_ADDR)")
	flag.Parse()

	if err := run(f); err != nil {
		logFatal(err)
	}
}
