package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Command
	}{
		{"blank", "   ", Command{Kind: CmdNone}},
		{"code", "4006381333931\n", Command{Kind: CmdScan, Arg: "4006381333931"}},
		{"code with dash inside", "SKU-42", Command{Kind: CmdScan, Arg: "SKU-42"}},
		{"increment", "+ITEM-1", Command{Kind: CmdIncrement, Arg: "ITEM-1"}},
		{"decrement", "-ITEM-1", Command{Kind: CmdDecrement, Arg: "ITEM-1"}},
		{"set quantity", "qty ITEM-1 2.5", Command{Kind: CmdSetQuantity, Arg: "ITEM-1", Quantity: 2.5}},
		{"remove", "rm ITEM-1", Command{Kind: CmdRemove, Arg: "ITEM-1"}},
		{"clear", "CLEAR", Command{Kind: CmdClear}},
		{"total", "total", Command{Kind: CmdTotal}},
		{"help", "?", Command{Kind: CmdHelp}},
		{"quit", "q", Command{Kind: CmdQuit}},
		{"lone plus is a code", "+", Command{Kind: CmdScan, Arg: "+"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	for _, input := range []string{"rm", "rm a b", "qty ITEM-1", "qty ITEM-1 lots"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseCommand(input)
			assert.ErrorIs(t, err, ErrBadCommand)
		})
	}
}
