package main

import "github.com/Zeeeepa/codegen-examples-sub000/services/reconciler/cli"

func main() {
	cli.Execute()
}
