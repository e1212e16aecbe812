package discover

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// ignoreFiles are read in every directory, in this order. Later files take
// precedence over earlier ones within the same directory.
var ignoreFiles = []string{".gitignore", ".ignore"}

type rule struct {
	negate  bool
	pattern string // without the leading "!"
	matcher *ignore.GitIgnore
}

// RuleSet holds the ignore rules declared in one directory.
type RuleSet struct {
	// Base is the slash-separated directory the rules are relative to,
	// itself relative to the scan root. The scan root is "".
	Base  string
	rules []rule
}

// ParseRules builds a RuleSet from gitignore-style lines.
// Blank lines and comments are dropped; a leading "!" negates the rule.
func ParseRules(base string, lines []string) *RuleSet {
	rs := &RuleSet{Base: strings.Trim(base, "/")}
	if rs.Base == "." {
		rs.Base = ""
	}
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var r rule
		if strings.HasPrefix(line, "!") {
			r.negate = true
			line = line[1:]
		}
		if line == "" {
			continue
		}
		r.pattern = line
		r.matcher = ignore.CompileIgnoreLines(line)
		rs.rules = append(rs.rules, r)
	}
	return rs
}

// Len returns the number of rules in the set.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// relative returns p relative to the set's base, or false when the set does
// not apply to p.
func (rs *RuleSet) relative(p string) (string, bool) {
	if rs.Base == "" {
		return p, true
	}
	if !strings.HasPrefix(p, rs.Base+"/") {
		return "", false
	}
	return p[len(rs.Base)+1:], true
}

// decide reports whether path is ignored according to this set alone. matched is
// false when no rule in the set names path itself.
func (rs *RuleSet) decide(path string, isDir bool) (ignored, matched bool) {
	rel, ok := rs.relative(path)
	if !ok {
		return false, false
	}
	for i := len(rs.rules) - 1; i >= 0; i-- {
		if rs.rules[i].matches(rel, isDir) {
			return !rs.rules[i].negate, true
		}
	}
	return false, false
}

// matches reports whether the rule names rel itself. go-gitignore also matches
// every path below a matching directory; such a match belongs to the directory
// and is not counted here.
func (r *rule) matches(rel string, isDir bool) bool {
	candidate := rel
	if isDir {
		candidate += "/"
	}
	if !r.matcher.MatchesPath(candidate) {
		return false
	}
	for i := 0; i < len(rel); i++ {
		if rel[i] == '/' && r.matcher.MatchesPath(rel[:i+1]) {
			return false
		}
	}
	return true
}

// reaches reports whether the rule could name a path below dir. Both are
// relative to the rule's base.
func (r *rule) reaches(dir string) bool {
	pattern := strings.TrimSuffix(r.pattern, "/")
	if !strings.Contains(pattern, "/") {
		return true // matched by name at any depth
	}
	parts := strings.Split(strings.TrimPrefix(pattern, "/"), "/")
	dirParts := strings.Split(dir, "/")
	for i, part := range parts {
		if part == "**" || i == len(dirParts) {
			return true
		}
		ok, err := path.Match(part, dirParts[i])
		if err != nil {
			return true
		}
		if !ok {
			return false
		}
	}
	return false
}

// verdict returns the decision of the deepest set naming path itself.
func verdict(path string, isDir bool, sets []*RuleSet) (ignored, decided bool) {
	for i := len(sets) - 1; i >= 0; i-- {
		if ignored, ok := sets[i].decide(path, isDir); ok {
			return ignored, true
		}
	}
	return false, false
}

// Match reports whether path (slash-separated, relative to the scan root) is
// ignored. sets must be ordered from the scan root towards the leaf; they are
// consulted leaf first and the first set with a rule naming the path decides.
// Within a set the last matching rule wins, so a negated rule re-includes a
// path. A path no rule names takes the decision of its deepest named ancestor
// directory.
func Match(path string, isDir bool, sets []*RuleSet) bool {
	if ignored, ok := verdict(path, isDir, sets); ok {
		return ignored
	}
	for dir := parentDir(path); dir != ""; dir = parentDir(dir) {
		if ignored, ok := verdict(dir, true, sets); ok {
			return ignored
		}
	}
	return false
}

// mayReinclude reports whether a negated rule in sets could re-include
// something below the ignored directory dir, so the walk has to enter it.
func mayReinclude(dir string, sets []*RuleSet) bool {
	for _, rs := range sets {
		rel, ok := rs.relative(dir)
		if !ok {
			continue
		}
		for i := range rs.rules {
			if rs.rules[i].negate && rs.rules[i].reaches(rel) {
				return true
			}
		}
	}
	return false
}

func parentDir(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return ""
	}
	return p[:i]
}

// loadRules reads the ignore files of dir. It returns nil when dir declares no rules.
func loadRules(dir, base string) (*RuleSet, error) {
	var lines []string
	for _, name := range ignoreFiles {
		fileLines, err := readLines(filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		lines = append(lines, fileLines...)
	}
	if len(lines) == 0 {
		return nil, nil
	}
	rs := ParseRules(base, lines)
	if rs.Len() == 0 {
		return nil, nil
	}
	return rs, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
