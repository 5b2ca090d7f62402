package main

import "github.com/mgnrega/dashboard/cmd"

func main() {
	cmd.Execute()
}
