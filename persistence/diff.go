package persistence

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// CompareFiles compares two text artifacts line by line. It returns
// true when they are identical; otherwise the report lists every
// differing line with both versions. Used for golden-vs-replay
// snapshots and event logs alike.
func CompareFiles(golden, replay string) (bool, string, error) {
	fa, err := os.Open(golden)
	if err != nil {
		return false, "", fmt.Errorf("failed to open %s: %w", golden, err)
	}
	defer fa.Close()

	fb, err := os.Open(replay)
	if err != nil {
		return false, "", fmt.Errorf("failed to open %s: %w", replay, err)
	}
	defer fb.Close()

	sa := bufio.NewScanner(fa)
	sb := bufio.NewScanner(fb)

	var diff strings.Builder
	same := true
	lineNo := 0

	for {
		ra := sa.Scan()
		rb := sb.Scan()
		if !ra && !rb {
			break
		}
		lineNo++

		la, lb := "<EOL>", "<EOL>"
		if ra {
			la = sa.Text()
		}
		if rb {
			lb = sb.Text()
		}
		if !ra || !rb || la != lb {
			same = false
			fmt.Fprintf(&diff, "Line %d:\n  GOLDEN: %s\n  REPLAY: %s\n", lineNo, la, lb)
		}
	}

	if err := sa.Err(); err != nil {
		return false, "", fmt.Errorf("failed to read %s: %w", golden, err)
	}
	if err := sb.Err(); err != nil {
		return false, "", fmt.Errorf("failed to read %s: %w", replay, err)
	}

	return same, diff.String(), nil
}
