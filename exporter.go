package signaller

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNilWriter indicates that a nil writer was provided to an exporter.
var ErrNilWriter = errors.New("signaller: nil writer")

// DOTOption configures the behaviour of ExportDOT.
type DOTOption func(*dotConfig)

type dotConfig struct {
	graphName string
	rankDir   string
}

func defaultDOTConfig(name string) dotConfig {
	if name == "" {
		name = "signaller"
	}
	return dotConfig{
		graphName: name,
		rankDir:   "LR",
	}
}

// DOTWithGraphName overrides the DOT graph identifier.
func DOTWithGraphName(name string) DOTOption {
	return func(cfg *dotConfig) {
		if name != "" {
			cfg.graphName = name
		}
	}
}

// DOTWithRankDir sets the rank direction (e.g. "LR", "TB") for the exported
// DOT graph.
func DOTWithRankDir(rankDir string) DOTOption {
	return func(cfg *dotConfig) {
		if rankDir != "" {
			cfg.rankDir = rankDir
		}
	}
}

// ExportDOT renders the signal and its current bindings in Graphviz DOT
// format, labelling each binding with its execution mode and reference
// strength.
func (s *Signal[T]) ExportDOT(w io.Writer, opts ...DOTOption) error {
	if w == nil {
		return ErrNilWriter
	}

	cfg := defaultDOTConfig(s.name)
	for _, opt := range opts {
		opt(&cfg)
	}

	s.mu.Lock()
	snapshot := make([]*binding[T], len(s.bindings))
	copy(snapshot, s.bindings)
	s.mu.Unlock()

	if _, err := fmt.Fprintf(w, "digraph %s {\n", dotQuoteIdentifier(cfg.graphName)); err != nil {
		return err
	}
	if cfg.rankDir != "" {
		if _, err := fmt.Fprintf(w, "    rankdir=%s;\n", cfg.rankDir); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "    %s [shape=box];\n", dotQuoteIdentifier(s.label())); err != nil {
		return err
	}

	for _, b := range snapshot {
		ref := "strong"
		if b.weak {
			ref = "weak"
		}
		label := fmt.Sprintf("%s (%s, %s)", b.id, s.modeOf(b), ref)
		if _, err := fmt.Fprintf(w, "    %s [label=%s];\n", dotQuoteIdentifier(b.id), dotQuoteIdentifier(label)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "    %s -> %s;\n", dotQuoteIdentifier(s.label()), dotQuoteIdentifier(b.id)); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "}\n")
	return err
}

func dotQuoteIdentifier(name string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range name {
		switch r {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
