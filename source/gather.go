package source

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/docvec/classify"
)

// CanonicalFiles are the default document set, in ingestion order.
var CanonicalFiles = []string{
	"AI AGENT CONSIDERATION.pdf",
	"AI AGENT CONVERSATION.pdf",
	"AI AGENT LIVE STOCK LIST.pdf",
	"BANK ACCOUNT DETAILS.pdf",
	"SHOP ADDRESS AND LOCATION.pdf",
}

// Gather returns the canonical files present in dir followed by any other
// PDF in dir whose name contains a canonical keyword.
func Gather(dir string) ([]string, error) {
	var found []string
	seen := make(map[string]bool)
	for _, name := range CanonicalFiles {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			found = append(found, p)
			seen[name] = true
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var extra []string
	for _, e := range entries {
		if !e.Type().IsRegular() || seen[e.Name()] {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") && classify.IsCanonicalKeyword(e.Name()) {
			extra = append(extra, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(extra)
	found = append(found, extra...)

	if len(found) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNothingFound, dir)
	}
	return found, nil
}
