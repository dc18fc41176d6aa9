// Command axisim runs AXI4-Lite simulations.
package main

import "github.com/sarchlab/axisim/axisim/cmd"

func main() {
	cmd.Execute()
}
