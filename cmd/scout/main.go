// Command scout is a web-search-augmented chat agent served over HTTP,
// WebSocket, MCP stdio and an interactive terminal.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
