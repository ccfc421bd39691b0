// Command switchboard runs graph-driven support conversations from the terminal, over
// HTTP or as an MCP server.
package main

func main() {
	Execute()
}
