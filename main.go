package main

import "github.com/df07/go-sequential-raytracer/cmd"

func main() {
	cmd.Execute()
}
