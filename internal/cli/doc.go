// Package cli provides the carmart command-line client.
//
// The root command reads its settings from flags, CARMART_* environment
// variables and an optional config file, and the shell subcommand starts an
// interactive REPL over a cars.Manager:
//
//	carmart shell --seed cars.json --log-level debug
//	carmart> add ABC123 brand=Skoda color=red country="czech republic"
//	carmart> search color = "red" AND displacement >= 1.2
//	carmart> match any color=red country=italy
//
// See runREPL for the full command list.
package cli
