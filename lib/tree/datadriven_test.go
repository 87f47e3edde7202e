package tree

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
)

// printTree renders the pre-order snapshot, one node per line.
func printTree(tree Tree) string {
	views := tree.Snapshot()
	if len(views) == 0 {
		return "empty\n"
	}
	idx := indexViews(views)
	var sb strings.Builder
	for _, v := range views {
		dir := "-"
		if p, ok := idx[v.Parent]; ok {
			dir = "R"
			if p.Left == v.ID {
				dir = "L"
			}
		}
		fmt.Fprintf(&sb, "%s%s %d %s\n", strings.Repeat("  ", v.Depth), dir, v.Value, strings.ToLower(v.Color.String()))
	}
	return sb.String()
}

func cmdValues(t *testing.T, d *datadriven.TestData) []int {
	values := make([]int, 0, len(d.CmdArgs))
	for _, arg := range d.CmdArgs {
		v, err := strconv.Atoi(arg.Key)
		require.NoError(t, err, "%s", d.Pos)
		values = append(values, v)
	}
	return values
}

func TestDataDriven(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		kind, err := ParseKind(filepath.Base(path))
		require.NoError(t, err)

		rec := &stepRecorder{}
		tree, err := New(kind, WithExplainer(rec))
		require.NoError(t, err)

		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			switch d.Cmd {
			case "reset":
				rec = &stepRecorder{}
				tree, err = New(kind, WithExplainer(rec))
				require.NoError(t, err)
				return ""

			case "insert", "remove":
				for _, v := range cmdValues(t, d) {
					op := tree.Insert
					if d.Cmd == "remove" {
						op = tree.Remove
					}
					if err := op(v); err != nil {
						return fmt.Sprintf("error: %v\n", err)
					}
				}
				return printTree(tree)

			case "print":
				return printTree(tree)

			case "traverse":
				var s string
				d.ScanArgs(t, "order", &s)
				order, err := ParseOrder(s)
				if err != nil {
					return fmt.Sprintf("error: %v\n", err)
				}
				var sb strings.Builder
				for v := range Traverse(tree, order) {
					if sb.Len() > 0 {
						sb.WriteByte(' ')
					}
					sb.WriteString(strconv.Itoa(v))
				}
				sb.WriteByte('\n')
				return sb.String()

			case "steps":
				var (
					op    string
					value int
				)
				d.ScanArgs(t, "op", &op)
				d.ScanArgs(t, "value", &value)
				n := len(rec.steps)
				switch op {
				case "insert":
					err = tree.Insert(value)
				case "remove":
					err = tree.Remove(value)
				default:
					d.Fatalf(t, "unknown op %q", op)
				}
				if err != nil {
					return fmt.Sprintf("error: %v\n", err)
				}
				var sb strings.Builder
				for _, s := range rec.since(n) {
					sb.WriteString(s.Title)
					if s.Terminal {
						sb.WriteString(" (terminal)")
					}
					sb.WriteByte('\n')
				}
				return sb.String()

			case "validate":
				if err := Validate(tree); err != nil {
					return fmt.Sprintf("error: %v\n", err)
				}
				return "ok\n"

			default:
			}
			return fmt.Sprintf("unknown command: %s", d.Cmd)
		})
	})
}
