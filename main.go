package main

import "github.com/deploymenttheory/go-apfshunt/cmd"

func main() {
	cmd.Execute()
}
