package main

import "github.com/klytics/dirkit/cmd"

func main() {
	cmd.Execute()
}
