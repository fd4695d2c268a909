package seed

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// BankMajor is the bank file format this build reads.
const BankMajor = "v1"

// BankFile is a versioned YAML question bank.
type BankFile struct {
	Version   string         `yaml:"version"`
	Subject   string         `yaml:"subject"`
	Questions []BankQuestion `yaml:"questions"`
}

// BankQuestion is one entry of a BankFile. Answer is a letter a-d.
type BankQuestion struct {
	Prompt     string   `yaml:"prompt"`
	Options    []string `yaml:"options"`
	Answer     string   `yaml:"answer"`
	Difficulty string   `yaml:"difficulty"`
	Chapter    string   `yaml:"chapter"`
	Subject    string   `yaml:"subject,omitempty"`
	SkillType  string   `yaml:"skill_type,omitempty"`
}

// ImportYAML reads a bank file. The file's subject overrides the importer
// default; a question's own subject overrides both.
func (im *Importer) ImportYAML(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var f BankFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	if err := checkVersion(f.Version); err != nil {
		return nil, err
	}

	sub := *im
	if f.Subject != "" {
		sub.Subject = f.Subject
	}
	rows := make([]row, len(f.Questions))
	for i, q := range f.Questions {
		rows[i] = row{
			n:          i + 1,
			prompt:     q.Prompt,
			options:    q.Options,
			answer:     q.Answer,
			difficulty: q.Difficulty,
			chapter:    q.Chapter,
			subject:    q.Subject,
			skill:      q.SkillType,
		}
	}
	return sub.insert(ctx, rows)
}

func checkVersion(v string) error {
	if v == "" {
		return fmt.Errorf("bank has no version")
	}
	if v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("bank version %s is not semver", strconv.Quote(v))
	}
	if semver.Major(v) != BankMajor {
		return fmt.Errorf("bank version %s is not supported (want %s.x)", v, BankMajor)
	}
	return nil
}
