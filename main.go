// Command surge-monitor samples ride prices from a mobile app at randomized intervals.
package main

import "github.com/devicelab-dev/surge-monitor/pkg/cli"

func main() {
	cli.Execute()
}
