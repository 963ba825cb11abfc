// Package compiler turns ISA program text into ir.Program values.
//
// The grammar is line-oriented: one instruction per line, optional
// `LABEL:` prefix, blank lines and `#`-prefixed comments ignored, keywords
// case-insensitive. Identifiers and labels are NFC-normalized on read so
// visually identical names from differently-encoded source files resolve
// to the same register, location or label.
package compiler

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/weft/internal/ir"
)

// ParseError reports bad syntax with its source position.
type ParseError struct {
	File string
	Line int // 1-based source line
	Msg  string
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// LoadPrograms parses one program file per launched thread. The thread id
// of each program is its position in paths.
func LoadPrograms(paths []string) ([]ir.Program, error) {
	programs := make([]ir.Program, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open program: %w", err)
		}
		p, err := ParseProgram(f, path)
		f.Close()
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, nil
}

// ParseProgram parses a whole program from r. name is used in error
// positions only.
func ParseProgram(r io.Reader, name string) (ir.Program, error) {
	var instrs []ir.LabeledInstr
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		li, err := ParseLine(line)
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				pe.File, pe.Line = name, lineno
				return ir.Program{}, pe
			}
			return ir.Program{}, &ParseError{File: name, Line: lineno, Msg: err.Error()}
		}
		li.Index = len(instrs)
		instrs = append(instrs, li)
	}
	if err := sc.Err(); err != nil {
		return ir.Program{}, fmt.Errorf("read program %s: %w", name, err)
	}
	return ir.NewProgram(instrs), nil
}

// ParseLine parses a single non-blank, non-comment instruction line.
// The returned instruction has Index 0; ParseProgram assigns real indices.
func ParseLine(line string) (ir.LabeledInstr, error) {
	fields := strings.Fields(norm.NFC.String(line))
	if len(fields) == 0 {
		return ir.LabeledInstr{}, &ParseError{Msg: "empty instruction"}
	}

	var label string
	if strings.HasSuffix(fields[0], ":") {
		label = strings.TrimSuffix(fields[0], ":")
		if label == "" {
			return ir.LabeledInstr{}, &ParseError{Msg: "empty label"}
		}
		fields = fields[1:]
		if len(fields) == 0 {
			return ir.LabeledInstr{}, &ParseError{Msg: fmt.Sprintf("label %q names no instruction", label)}
		}
	}

	in, err := parseInstr(fields)
	if err != nil {
		return ir.LabeledInstr{}, err
	}
	return ir.LabeledInstr{Label: label, Instr: in}, nil
}

func parseInstr(fields []string) (ir.Instr, error) {
	switch strings.ToLower(fields[0]) {
	case "load":
		// load <MODE> #mN rN
		if len(fields) != 4 {
			return nil, &ParseError{Msg: fmt.Sprintf("load wants `load <MODE> #<loc> <reg>`, got %q", strings.Join(fields, " "))}
		}
		mode, err := ir.ParseMode(fields[1])
		if err != nil {
			return nil, &ParseError{Msg: err.Error()}
		}
		loc, err := parseLoc(fields[2])
		if err != nil {
			return nil, err
		}
		dst, err := parseReg(fields[3])
		if err != nil {
			return nil, err
		}
		return ir.Load{Mode: mode, Dst: dst, Loc: loc}, nil

	case "store":
		// store <MODE> rN #mN
		if len(fields) != 4 {
			return nil, &ParseError{Msg: fmt.Sprintf("store wants `store <MODE> <reg> #<loc>`, got %q", strings.Join(fields, " "))}
		}
		mode, err := ir.ParseMode(fields[1])
		if err != nil {
			return nil, &ParseError{Msg: err.Error()}
		}
		src, err := parseReg(fields[2])
		if err != nil {
			return nil, err
		}
		loc, err := parseLoc(fields[3])
		if err != nil {
			return nil, err
		}
		return ir.Store{Mode: mode, Src: src, Loc: loc}, nil

	case "if":
		// if rN goto LABEL
		if len(fields) != 4 || strings.ToLower(fields[2]) != "goto" {
			return nil, &ParseError{Msg: fmt.Sprintf("branch wants `if <reg> goto <label>`, got %q", strings.Join(fields, " "))}
		}
		cond, err := parseReg(fields[1])
		if err != nil {
			return nil, err
		}
		return ir.IfGoto{Cond: cond, Target: fields[3]}, nil

	default:
		// rN = <expr>
		return parseAssign(fields)
	}
}

func parseAssign(fields []string) (ir.Instr, error) {
	if len(fields) < 3 || fields[1] != "=" {
		return nil, &ParseError{Msg: fmt.Sprintf("cannot parse instruction %q", strings.Join(fields, " "))}
	}
	dst, err := parseReg(fields[0])
	if err != nil {
		return nil, err
	}

	switch len(fields) {
	case 3:
		// rN = <int> | rN = rM
		if v, err := strconv.ParseInt(fields[2], 10, 64); err == nil {
			return ir.Assign{Dst: dst, Expr: ir.Const(v)}, nil
		}
		src, err := parseReg(fields[2])
		if err != nil {
			return nil, err
		}
		return ir.Assign{Dst: dst, Expr: ir.RegRef(src)}, nil

	case 5:
		// rN = rM <op> rK
		lhs, err := parseReg(fields[2])
		if err != nil {
			return nil, err
		}
		op, err := ir.ParseOp(fields[3])
		if err != nil {
			return nil, &ParseError{Msg: err.Error()}
		}
		rhs, err := parseReg(fields[4])
		if err != nil {
			return nil, err
		}
		return ir.Assign{Dst: dst, Expr: ir.BinExpr{Op: op, LHS: lhs, RHS: rhs}}, nil

	default:
		return nil, &ParseError{Msg: fmt.Sprintf("cannot parse assignment %q", strings.Join(fields, " "))}
	}
}

func parseReg(tok string) (ir.RegID, error) {
	if !strings.HasPrefix(tok, "r") || len(tok) < 2 {
		return "", &ParseError{Msg: fmt.Sprintf("expected register (rN), got %q", tok)}
	}
	return ir.RegID(tok), nil
}

func parseLoc(tok string) (ir.LocID, error) {
	if !strings.HasPrefix(tok, "#") || len(tok) < 2 {
		return "", &ParseError{Msg: fmt.Sprintf("expected memory location (#mN), got %q", tok)}
	}
	return ir.LocID(tok[1:]), nil
}
