// Package main provides the CLI entry point for weipack.
package main

func main() {
	Execute()
}
