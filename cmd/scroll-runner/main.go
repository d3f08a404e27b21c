// Command scroll-runner runs bounded, agent-driven scroll plans.
package main

import "github.com/devicelab-dev/scroll-runner/pkg/cli"

func main() {
	cli.Execute()
}
