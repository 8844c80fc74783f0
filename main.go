package main

import "github.com/frahmantamala/complaint-management/cmd"

func main() {
	cmd.Execute()
}
