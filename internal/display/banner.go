package display

import (
	"fmt"
	"io"

	"github.com/backmassage/wallrender/internal/term"
)

// PrintBanner prints the ASCII art banner; magenta when colors are enabled.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, `              _ _                    _
__      ____ _| | |_ __ ___ _ __   __| | ___ _ __
\ \ /\ / / _`+"`"+` | | | '__/ _ \ '_ \ / _`+"`"+` |/ _ \ '__|
 \ V  V / (_| | | | | |  __/ | | | (_| |  __/ |
  \_/\_/ \__,_|_|_|_|  \___|_| |_|\__,_|\___|_|
`)
	fmt.Fprintln(w, term.NC)
}
