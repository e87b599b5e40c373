package completion

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
)

// ContextSource provides argument completions keyed on well-known
// commands: directories for cd, variable names for export and unset,
// hosts for ssh, targets for make, signals for kill, page names for man.
type ContextSource struct{}

func NewContextSource() *ContextSource {
	return &ContextSource{}
}

func (c *ContextSource) Complete(_ context.Context, word Word) []Candidate {
	if word.CommandPosition {
		return nil
	}
	switch word.Command {
	case "cd", "pushd", "rmdir":
		return completeDirectories(word.Text)
	case "export", "unset":
		return completeVariableNames(word.Text)
	case "ssh", "scp", "sftp":
		return completeSSHHosts(word.Text)
	case "make":
		return completeMakeTargets(word.Text)
	case "kill":
		return completeSignals(word.Text)
	case "man":
		return completeManPages(word.Text)
	}
	return nil
}

func completeDirectories(prefix string) []Candidate {
	dir, base := filepath.Split(expandTilde(prefix))
	searchDir := dir
	if searchDir == "" {
		searchDir = "."
	}

	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return nil
	}

	var candidates []Candidate
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || !strings.HasPrefix(name, base) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		candidates = append(candidates, Candidate{Value: dir + name + "/"})
	}
	return candidates
}

func completeVariableNames(prefix string) []Candidate {
	var candidates []Candidate
	for _, kv := range os.Environ() {
		name, _, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(name, prefix) {
			candidates = append(candidates, Candidate{Value: name, Description: "variable"})
		}
	}
	return candidates
}

func completeSSHHosts(prefix string) []Candidate {
	hosts := make(map[string]bool)

	if home, err := os.UserHomeDir(); err == nil {
		sshDir := filepath.Join(home, ".ssh")
		parseSSHConfig(filepath.Join(sshDir, "config"), sshDir, hosts, make(map[string]bool))
		parseKnownHosts(filepath.Join(sshDir, "known_hosts"), hosts)
	}

	var candidates []Candidate
	for host := range hosts {
		if strings.HasPrefix(host, prefix) {
			candidates = append(candidates, Candidate{Value: host, Description: "host"})
		}
	}
	return candidates
}

// parseSSHConfig collects Host aliases, following Include directives.
// visited guards against include cycles.
func parseSSHConfig(path, sshDir string, hosts map[string]bool, visited map[string]bool) {
	abs, err := filepath.Abs(path)
	if err != nil || visited[abs] {
		return
	}
	visited[abs] = true

	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		keyword, rest, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		switch strings.ToLower(keyword) {
		case "host":
			for _, host := range strings.Fields(rest) {
				// wildcard and negated patterns are not completable names
				if !strings.ContainsAny(host, "*?!") {
					hosts[host] = true
				}
			}
		case "include":
			pattern := strings.TrimSpace(rest)
			if pattern == "" {
				continue
			}
			pattern = expandTilde(pattern)
			if !filepath.IsAbs(pattern) {
				pattern = filepath.Join(sshDir, pattern)
			}
			matches, err := filepath.Glob(pattern)
			if err != nil {
				continue
			}
			for _, match := range matches {
				parseSSHConfig(match, sshDir, hosts, visited)
			}
		}
	}
}

// parseKnownHosts collects hostnames. Hashed entries cannot be reversed
// and IP addresses make poor suggestions, so both are skipped.
func parseKnownHosts(path string, hosts map[string]bool) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "|") {
			continue
		}
		// @cert-authority / @revoked markers prefix the host field
		if strings.HasPrefix(line, "@") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			line = strings.Join(fields[1:], " ")
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		for _, h := range strings.Split(fields[0], ",") {
			h = strings.TrimSpace(h)
			// [hostname]:port form
			if strings.HasPrefix(h, "[") {
				if end := strings.Index(h, "]"); end > 1 {
					h = h[1:end]
				}
			}
			if h == "" || strings.ContainsAny(h, "*?") || looksLikeIPAddress(h) {
				continue
			}
			hosts[h] = true
		}
	}
}

func looksLikeIPAddress(s string) bool {
	if !strings.ContainsAny(s, ".:") {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		case c == '.' || c == ':':
		default:
			return false
		}
	}
	// hex letters only count for IPv6
	return strings.Contains(s, ":") || !strings.ContainsFunc(s, func(c rune) bool {
		return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	})
}

func completeMakeTargets(prefix string) []Candidate {
	var candidates []Candidate
	for _, name := range []string{"Makefile", "makefile", "GNUmakefile"} {
		file, err := os.Open(name)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "\t") || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ".") {
				continue
			}
			targets, rest, ok := strings.Cut(line, ":")
			// ":=" is a variable assignment, not a rule
			if !ok || strings.HasPrefix(rest, "=") {
				continue
			}
			for _, target := range strings.Fields(targets) {
				if strings.HasPrefix(target, prefix) && !strings.ContainsAny(target, "$%=") {
					candidates = append(candidates, Candidate{Value: target, Description: "target"})
				}
			}
		}
		_ = file.Close()
		break
	}
	return candidates
}

var killSignals = []string{
	"-HUP", "-INT", "-QUIT", "-ABRT", "-KILL", "-USR1", "-SEGV", "-USR2",
	"-PIPE", "-ALRM", "-TERM", "-CHLD", "-CONT", "-STOP", "-TSTP",
	"-TTIN", "-TTOU", "-WINCH",
}

func completeSignals(prefix string) []Candidate {
	// a word without a dash is a PID, not a signal
	if !strings.HasPrefix(prefix, "-") {
		return nil
	}
	var candidates []Candidate
	for _, sig := range killSignals {
		if strings.HasPrefix(sig, prefix) {
			candidates = append(candidates, Candidate{Value: sig, Description: "signal"})
		}
	}
	return candidates
}

func completeManPages(prefix string) []Candidate {
	// prefixes shorter than two runes would suggest half the manual
	if len(prefix) < 2 {
		return nil
	}

	dirs := []string{"/usr/share/man", "/usr/local/share/man"}
	if manpath := os.Getenv("MANPATH"); manpath != "" {
		dirs = filepath.SplitList(manpath)
	}

	seen := make(map[string]bool)
	var candidates []Candidate
	for _, dir := range dirs {
		sections, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, section := range sections {
			if !section.IsDir() || !strings.HasPrefix(section.Name(), "man") {
				continue
			}
			pages, err := os.ReadDir(filepath.Join(dir, section.Name()))
			if err != nil {
				continue
			}
			for _, page := range pages {
				name := page.Name()
				name = strings.TrimSuffix(name, ".gz")
				if dot := strings.LastIndex(name, "."); dot > 0 {
					name = name[:dot]
				}
				if strings.HasPrefix(name, prefix) && !seen[name] {
					seen[name] = true
					candidates = append(candidates, Candidate{Value: name, Description: "man page"})
				}
			}
		}
	}
	return candidates
}
