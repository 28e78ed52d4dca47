// Command topogen turns a georeferenced elevation grid into a stack of
// laser-cuttable or 3D-printable contour layers.
package main

import "github.com/mhacking/topogen/internal/cmd"

func main() {
	cmd.Execute()
}
