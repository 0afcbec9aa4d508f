package session

import "github.com/nao1215/privacylens/internal/model"

// AddScriptFindings records classified scripts. Findings are deduplicated
// by NormalizeURLKey, so the same script loaded with different cache-busters
// is counted once. Findings without a URL or whose URL has no host are
// ignored.
func (s *Session) AddScriptFindings(findings []model.Finding) {
	for _, f := range findings {
		if !s.acceptFinding(f) {
			continue
		}
		key := NormalizeURLKey(f.URL)
		if _, seen := s.seenScriptURLs[key]; seen {
			continue
		}
		s.addScript(f, key)
	}
}

// MergeFindings merges findings reported by another source (page discovery
// or network observation). Findings are deduplicated by HostKey, so a
// tracker loaded from several paths on the same host shows up once per
// source. The same URL may be listed once for each source that saw it; the
// script count is taken over distinct URLs, so this does not inflate it.
func (s *Session) MergeFindings(findings []model.Finding) {
	for _, f := range findings {
		if !s.acceptFinding(f) {
			continue
		}
		if f.Source == "" {
			f.Source = "Script"
		}
		if _, seen := s.seenScriptHosts[HostKey(f.URL, f.Source)]; seen {
			continue
		}
		s.addScript(f, NormalizeURLKey(f.URL))
	}
}

// acceptFinding reports whether f names a script that can be attributed to
// a host. Anything else would end up as a bogus "host::source" entry.
func (s *Session) acceptFinding(f model.Finding) bool {
	if f.URL == "" {
		return false
	}
	if Hostname(f.URL) == "" {
		s.logger.Debug("dropping finding with unparsable URL", "url", f.URL, "source", f.Source)
		return false
	}
	return true
}

func (s *Session) addScript(f model.Finding, urlKey string) {
	if f.Source == "" {
		f.Source = "Script"
	}
	s.seenScriptURLs[urlKey] = struct{}{}
	s.seenScriptHosts[HostKey(f.URL, f.Source)] = struct{}{}
	s.scripts = append(s.scripts, f)
}
