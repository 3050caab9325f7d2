// Command inspect dumps the raw pebble key space of a chatsync
// database. Useful for debugging marker and counter state on a stopped
// server.
package main

import (
	"flag"
	"fmt"
	"os"

	"chatsync/pkg/logger"
	"chatsync/pkg/store"
)

func main() {
	var (
		path   string
		prefix string
		values bool
	)
	flag.StringVar(&path, "path", "", "pebble db path")
	flag.StringVar(&prefix, "prefix", "", "key prefix filter (e.g. marker:, msg:, user:, seq:)")
	flag.BoolVar(&values, "values", false, "print values as well as keys")
	flag.Parse()
	if path == "" {
		fmt.Fprintln(os.Stderr, "--path required")
		os.Exit(2)
	}

	logger.Init()
	if err := store.Open(path); err != nil {
		fmt.Fprintf(os.Stderr, "failed to open pebble at %s: %v\n", path, err)
		os.Exit(1)
	}
	defer store.Close()

	keys, err := store.ListKeys(prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list keys failed: %v\n", err)
		os.Exit(1)
	}
	for _, k := range keys {
		if !values {
			fmt.Println(k)
			continue
		}
		v, err := store.GetKey(k)
		if err != nil {
			fmt.Printf("%s\t<error: %v>\n", k, err)
			continue
		}
		fmt.Printf("%s\t%s\n", k, v)
	}
	fmt.Fprintf(os.Stderr, "%d keys\n", len(keys))
}
