package main

import "github.com/Zeeeepa/codegen-examples-sub000/services/api/cli"

func main() {
	cli.Execute()
}
