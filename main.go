package main

import "github.com/AzielCF/az-post/cmd"

func main() {
	cmd.Execute()
}
