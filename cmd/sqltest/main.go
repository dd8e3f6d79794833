// Package main is the entry point for the sqltest binary.
package main

import (
	"os"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/albinkc/databend/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
