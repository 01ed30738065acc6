package main

import "github.com/farxc/ecommerce_medallion/internal/cmd"

func main() {
	cmd.Execute()
}
