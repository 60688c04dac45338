package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Options are the enumerated choices offered by the prediction form.
type Options struct {
	Accounts []string `yaml:"accounts"`
	Tags     []string `yaml:"tags"`
}

// DefaultOptions mirrors the placeholder identifiers used by the trained model.
func DefaultOptions() Options {
	return Options{
		Accounts: []string{"acct_1", "acct_2", "acct_3"},
		Tags:     []string{"tag_1", "tag_2", "tag_3"},
	}
}

// LoadOptions reads the options file. An empty path yields the defaults; a
// list missing from the file falls back to its default.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read options file: %w", err)
	}
	var parsed Options
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Options{}, fmt.Errorf("parse options file %s: %w", path, err)
	}
	if len(parsed.Accounts) > 0 {
		opts.Accounts = dedupe(parsed.Accounts)
	}
	if len(parsed.Tags) > 0 {
		opts.Tags = dedupe(parsed.Tags)
	}
	return opts, nil
}

// HasAccount reports whether the account is one of the offered choices.
func (o Options) HasAccount(account string) bool {
	return slices.Contains(o.Accounts, account)
}

// HasTag reports whether the tag is one of the offered choices.
func (o Options) HasTag(tag string) bool {
	return slices.Contains(o.Tags, tag)
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
