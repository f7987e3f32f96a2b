// Command smfdump prints a readable listing of a Standard MIDI File's
// tracks and events. It exists to exercise the smf package's public API
// end-to-end; all file I/O lives here, not in the codec core.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/wsharkey/go-smf"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: smfdump <file.mid>")
		os.Exit(2)
	}

	if err := dump(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, "smfdump:", err)
		os.Exit(1)
	}
}

func dump(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	midi, err := smf.Decode(bufio.NewReader(f))
	if err != nil {
		return err
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	fmt.Fprintf(out, "format %d, division %s, %d track(s)\n", midi.Format, midi.Division, len(midi.Tracks))
	for i, track := range midi.Tracks {
		fmt.Fprintf(out, "track %d:\n", i)
		var tick uint64
		for _, te := range track {
			tick += uint64(te.Delta)
			fmt.Fprintf(out, "  t=%-10d +%-8d %s\n", tick, te.Delta, te.Event)
		}
	}
	return nil
}
