package vcs

import (
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/gpmworks/gpm/pkg/errors"
)

// configKey is a parsed "section[.subsection].option" git config key. The
// subsection may itself contain dots, as branch names often do.
type configKey struct {
	section, subsection, option string
}

func parseConfigKey(key string) (configKey, error) {
	first := strings.Index(key, ".")
	last := strings.LastIndex(key, ".")
	if first <= 0 || last == len(key)-1 {
		return configKey{}, errors.New(errors.ErrCodeInvalidInput, "invalid config key %q", key)
	}
	k := configKey{section: key[:first], option: key[last+1:]}
	if first != last {
		k.subsection = key[first+1 : last]
	}
	return k, nil
}

func getConfig(repo *git.Repository, key string) (string, error) {
	k, err := parseConfigKey(key)
	if err != nil {
		return "", err
	}
	cfg, err := repo.Config()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeVCS, err, "failed to read git config")
	}
	if !cfg.Raw.HasSection(k.section) {
		return "", nil
	}
	s := cfg.Raw.Section(k.section)
	if k.subsection == "" {
		return s.Option(k.option), nil
	}
	if !s.HasSubsection(k.subsection) {
		return "", nil
	}
	return s.Subsection(k.subsection).Option(k.option), nil
}

func setConfig(repo *git.Repository, key, value string) error {
	k, err := parseConfigKey(key)
	if err != nil {
		return err
	}
	cfg, err := repo.Config()
	if err != nil {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to read git config")
	}

	// Branch sections are re-marshaled from the typed view on save, so raw
	// edits to them would be dropped.
	if k.section == "branch" && k.subsection != "" {
		if err := setBranchOption(cfg, k.subsection, k.option, value); err != nil {
			return err
		}
	} else if k.subsection == "" {
		cfg.Raw.Section(k.section).SetOption(k.option, value)
	} else {
		cfg.Raw.Section(k.section).Subsection(k.subsection).SetOption(k.option, value)
	}

	if err := repo.SetConfig(cfg); err != nil {
		return errors.Wrap(errors.ErrCodeVCS, err, "failed to write git config %s", key)
	}
	return nil
}

func setBranchOption(cfg *config.Config, branch, option, value string) error {
	b, ok := cfg.Branches[branch]
	if !ok {
		b = &config.Branch{Name: branch}
		cfg.Branches[branch] = b
	}
	switch option {
	case "remote":
		b.Remote = value
	case "merge":
		b.Merge = plumbing.ReferenceName(value)
	case "rebase":
		b.Rebase = value
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unsupported branch option %q", option)
	}
	return nil
}

// track records origin as the upstream of branch.
func track(cfg *config.Config, branch string) {
	cfg.Branches[branch] = &config.Branch{
		Name:   branch,
		Remote: git.DefaultRemoteName,
		Merge:  plumbing.NewBranchReferenceName(branch),
		Rebase: "false",
	}
}
