// services/extractor.go - External Scoring Process Client
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// scriptTimeout bounds a single scorer invocation.
const scriptTimeout = 30 * time.Second

// KeywordExtractor produces the topN most salient phrases of a corpus.
type KeywordExtractor interface {
	Keywords(topN int, corpus string) ([]string, error)
}

// Recommender orders candidate ids by similarity to a subject text.
// The candidates line holds "Id:<id>|<text>" entries joined by "___".
type Recommender interface {
	Rank(subject, candidates string) ([]uint, error)
}

// GapAnalyzer lists the requirements a subject's text does not cover.
type GapAnalyzer interface {
	MissingSkills(subject, requirements string) ([]string, error)
}

// PythonExtractor shells out to the keyword extraction script. The
// script reads the topN line then the corpus line from stdin and
// prints a single JSON list of phrases.
type PythonExtractor struct {
	Python string
	Script string
}

func NewPythonExtractor() *PythonExtractor {
	return &PythonExtractor{
		Python: pythonBin(),
		Script: scriptPath("KEYWORDS_SCRIPT", "keywords.py"),
	}
}

func (p *PythonExtractor) Keywords(topN int, corpus string) ([]string, error) {
	out, err := runScript(p.Python, p.Script, strconv.Itoa(topN), corpus)
	if err != nil {
		return nil, err
	}
	return parseStringList(out)
}

// PythonRecommender shells out to one of the recommendation scripts.
// The script reads the subject line then the candidates line and prints
// a JSON list of candidate ids, best match first.
type PythonRecommender struct {
	Python string
	Script string
}

func NewUserRecommender() *PythonRecommender {
	return &PythonRecommender{pythonBin(), scriptPath("RECOMMEND_USERS_SCRIPT", "recommendusers.py")}
}

func NewGroupRecommender() *PythonRecommender {
	return &PythonRecommender{pythonBin(), scriptPath("RECOMMEND_GROUPS_SCRIPT", "recommendgroups.py")}
}

func NewProjectRecommender() *PythonRecommender {
	return &PythonRecommender{pythonBin(), scriptPath("RECOMMEND_PROJECTS_SCRIPT", "recommendprojects.py")}
}

func (p *PythonRecommender) Rank(subject, candidates string) ([]uint, error) {
	out, err := runScript(p.Python, p.Script, subject, candidates)
	if err != nil {
		return nil, err
	}
	return parseIDList(out)
}

// PythonGapAnalyzer shells out to the skill gap script. The script
// reads the subject line then the requirements line ("___"-joined) and
// prints a JSON list of the requirements left uncovered.
type PythonGapAnalyzer struct {
	Python string
	Script string
}

func NewGapAnalyzer() *PythonGapAnalyzer {
	return &PythonGapAnalyzer{pythonBin(), scriptPath("SKILLGAP_SCRIPT", "skillgap.py")}
}

func (p *PythonGapAnalyzer) MissingSkills(subject, requirements string) ([]string, error) {
	out, err := runScript(p.Python, p.Script, subject, requirements)
	if err != nil {
		return nil, err
	}
	return parseStringList(out)
}

func pythonBin() string {
	if bin := os.Getenv("PYTHON_BIN"); bin != "" {
		return bin
	}
	return "python3"
}

func scriptPath(envKey, def string) string {
	if p := os.Getenv(envKey); p != "" {
		return p
	}
	return filepath.Join("scripts", def)
}

// runScript starts the script, writes one input per line to its stdin
// and returns the single line it prints. Newlines in the inputs are
// stripped so each stays a single protocol line.
func runScript(python, script string, inputs ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), scriptTimeout)
	defer cancel()

	var in strings.Builder
	for _, input := range inputs {
		in.WriteString(strings.ReplaceAll(input, "\n", " "))
		in.WriteString("\n")
	}

	cmd := exec.CommandContext(ctx, python, script)
	cmd.Stdin = strings.NewReader(in.String())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %v: %s", filepath.Base(script), err,
			strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// normalizeJSON fixes up Python repr output, which single-quotes strings.
func normalizeJSON(s string) string {
	return strings.ReplaceAll(s, "'", "\"")
}

func parseStringList(out string) ([]string, error) {
	var list []string
	if err := json.Unmarshal([]byte(normalizeJSON(out)), &list); err != nil {
		return nil, fmt.Errorf("bad script output %q: %w", out, err)
	}
	return list, nil
}

// parseIDList accepts ids printed either as numbers or as strings.
func parseIDList(out string) ([]uint, error) {
	var raw []interface{}
	if err := json.Unmarshal([]byte(normalizeJSON(out)), &raw); err != nil {
		return nil, fmt.Errorf("bad script output %q: %w", out, err)
	}
	ids := make([]uint, 0, len(raw))
	for _, v := range raw {
		switch id := v.(type) {
		case float64:
			ids = append(ids, uint(id))
		case string:
			n, err := strconv.ParseUint(id, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad id %q in script output", id)
			}
			ids = append(ids, uint(n))
		default:
			return nil, fmt.Errorf("bad id %v in script output", v)
		}
	}
	return ids, nil
}
