package display

import (
	"fmt"
	"os"

	"github.com/tessellab/meshpipe/internal/term"
)

// PrintBanner prints the ASCII art banner; uses Magenta if colors are enabled.
func PrintBanner() {
	if term.Enabled() {
		fmt.Fprint(os.Stdout, term.Magenta)
	}
	fmt.Fprint(os.Stdout, ` __  __           _     ____  _
|  \/  | ___  ___| |__ |  _ \(_)_ __   ___
| |\/| |/ _ \/ __| '_ \| |_) | | '_ \ / _ \
| |  | |  __/\__ \ | | |  __/| | |_) |  __/
|_|  |_|\___||___/_| |_|_|   |_| .__/ \___|
                               |_|
`)
	if term.Enabled() {
		fmt.Fprintln(os.Stdout, term.NC)
	}
}
