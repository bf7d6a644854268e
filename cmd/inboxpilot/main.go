package main

import "github.com/inboxpilot/inboxpilot/cmd/inboxpilot/cmd"

func main() {
	cmd.Execute()
}
