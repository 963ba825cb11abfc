package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/roach88/weft/internal/engine"
)

// Session is the interactive prompt loop around a step engine.
//
// The loop prints the numbered enabled-action menu, reads one command per
// prompt, and applies the chosen action. All engine mutation happens
// between prompts; the dumps render snapshots, never live state.
//
// Commands at the prompt:
//
//	<index>       apply that action
//	exit          terminate the session
//	memory        dump loc -> value for all initialized locations
//	registers     dump rN -> value per thread (assigned registers only)
//	graph <path>  serialize the current graph as DOT to <path>
type Session struct {
	Engine *engine.Engine
	In     io.Reader
	Out    io.Writer
}

// Run drives the prompt loop until the interpreter terminates, the user
// exits, or a runtime error aborts the session. The returned error is nil
// for normal termination and user exit.
func (s *Session) Run() error {
	sc := bufio.NewScanner(s.In)
	for {
		actions := s.Engine.Enabled()
		if len(actions) == 0 {
			fmt.Fprintln(s.Out, "No more actions to execute")
			return nil
		}
		for i, a := range actions {
			fmt.Fprintf(s.Out, "%d | %s\n", i, a)
		}
		fmt.Fprintln(s.Out, "Select an action index (or: exit, memory, registers, graph <path>):")

		if !sc.Scan() {
			// EOF behaves like exit.
			return sc.Err()
		}
		input := strings.TrimSpace(sc.Text())
		switch {
		case input == "":
			continue

		case input == "exit":
			return nil

		case input == "memory":
			s.dumpMemory()
			continue

		case input == "registers":
			s.dumpRegisters()
			continue

		case strings.HasPrefix(input, "graph"):
			parts := strings.Fields(input)
			if len(parts) != 2 {
				fmt.Fprintln(s.Out, "Usage: graph <path>")
				continue
			}
			if err := s.writeGraph(parts[1]); err != nil {
				fmt.Fprintf(s.Out, "Cannot write graph: %v\n", err)
			}
			continue
		}

		index, err := strconv.Atoi(input)
		if err != nil {
			fmt.Fprintln(s.Out, "Invalid command or index")
			continue
		}
		if index < 0 || index >= len(actions) {
			fmt.Fprintln(s.Out, "Invalid index")
			continue
		}
		if err := s.Engine.Apply(index); err != nil {
			// Arithmetic and unknown-label faults abort the session; the
			// caller may still dump the partial graph before exiting.
			return err
		}
	}
}

// dumpMemory prints loc -> value for all initialized locations.
func (s *Session) dumpMemory() {
	st := s.Engine.State()
	mem := st.MemorySnapshot()
	for _, loc := range st.SortedLocs() {
		fmt.Fprintf(s.Out, "%s: %d\n", loc, mem[loc])
	}
}

// dumpRegisters prints each thread's assigned registers.
func (s *Session) dumpRegisters() {
	st := s.Engine.State()
	for t := 0; t < s.Engine.Threads(); t++ {
		fmt.Fprintf(s.Out, "Thread %d\n", t)
		regs := st.RegistersOf(t)
		for _, r := range st.SortedRegs(t) {
			fmt.Fprintf(s.Out, "%s: %d\n", r, regs[r])
		}
	}
}

// writeGraph serializes the current graph snapshot as DOT.
func (s *Session) writeGraph(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.Engine.State().GraphSnapshot().WriteDOT(f)
}
