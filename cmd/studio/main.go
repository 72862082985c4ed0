package main

import "github.com/layout-studio/backend/cmd/studio/cmd"

func main() {
	cmd.Execute()
}
