package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadCommand is returned for session input that cannot be parsed.
var ErrBadCommand = errors.New("bad command")

// CommandKind identifies an operator action in the scan loop.
type CommandKind int

// Session commands.
const (
	CmdNone CommandKind = iota
	CmdScan
	CmdIncrement
	CmdDecrement
	CmdSetQuantity
	CmdRemove
	CmdClear
	CmdTotal
	CmdHelp
	CmdQuit
)

// Command is one parsed line of scanner or keyboard input.
type Command struct {
	Arg      string
	Quantity float64
	Kind     CommandKind
}

// ParseCommand interprets a line. Anything that is not a keyword is treated
// as a scanned code:
//
//	+ID          increment a line
//	-ID          decrement a line
//	qty ID N     set a line's quantity
//	rm ID        remove a line
//	clear | total | help | quit
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Kind: CmdNone}, nil
	}

	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "clear":
		return Command{Kind: CmdClear}, nil
	case "total":
		return Command{Kind: CmdTotal}, nil
	case "help", "?":
		return Command{Kind: CmdHelp}, nil
	case "quit", "exit", "q":
		return Command{Kind: CmdQuit}, nil
	case "rm":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("%w: usage: rm ID", ErrBadCommand)
		}
		return Command{Kind: CmdRemove, Arg: fields[1]}, nil
	case "qty":
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("%w: usage: qty ID N", ErrBadCommand)
		}
		q, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Command{}, fmt.Errorf("%w: quantity %q is not a number", ErrBadCommand, fields[2])
		}
		return Command{Kind: CmdSetQuantity, Arg: fields[1], Quantity: q}, nil
	}

	if len(line) > 1 && (line[0] == '+' || line[0] == '-') {
		kind := CmdIncrement
		if line[0] == '-' {
			kind = CmdDecrement
		}
		return Command{Kind: kind, Arg: strings.TrimSpace(line[1:])}, nil
	}

	return Command{Kind: CmdScan, Arg: line}, nil
}

// HelpText lists the session commands.
const HelpText = `scan or type a code to add it
  +ID        add one more of a line
  -ID        take one off a line
  qty ID N   set a line's quantity
  rm ID      remove a line
  clear      empty the cart
  total      show the cart
  quit       end the session`
