package blocklist

import (
	"bufio"
	"io"
	"strings"

	"github.com/haukened/fwd-dns/internal/dns/common/log"
)

// ParsePlainList parses a newline-delimited list of domains.
//
// Behavior:
//   - '#' starts a comment, whole-line or inline
//   - a leading "*." or "." is accepted and ignored
//   - names are lowercased and lose their trailing dot
//   - invalid tokens are skipped, not fatal
//   - duplicates are dropped, first-seen order is kept
func ParsePlainList(r io.Reader, logger log.Logger) ([]string, error) {
	scanner := bufio.NewScanner(r)
	seen := make(map[string]struct{})
	out := make([]string, 0, 256)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimPrefix(scanner.Text(), "\uFEFF")
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		name := normalizeEntry(line)
		if !isValidEntry(name) {
			logger.Debug(map[string]any{"line": lineNum, "raw": strings.TrimSpace(line)}, "skip_invalid_entry")
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	logger.Debug(map[string]any{"count": len(out)}, "parse_plain_list_done")
	return out, nil
}
