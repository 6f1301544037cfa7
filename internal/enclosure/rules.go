package enclosure

import (
	"github.com/queer/boxxy/internal/fsdriver"
	"github.com/queer/boxxy/internal/rule"
)

// preparedRules is the NEW -> RULES_PREPARED transition's output: the
// rules with Target/Rewrite fully expanded to absolute host paths, plus
// the set of paths this step materialised so cleanup can remove them
// again.
type preparedRules struct {
	rules              []rule.Rule
	createdFiles       []string
	createdDirectories []string
}

// prepareRules resolves every applicable rule's paths and creates whichever
// endpoint is missing, on the host filesystem, before any namespace exists
// — so that when the child bind-mounts them a moment later inside its own
// view, both sides are guaranteed to exist. This is the NEW ->
// RULES_PREPARED transition.
func prepareRules(fs fsdriver.Driver, applicable []rule.Rule) (*preparedRules, error) {
	out := &preparedRules{}

	for _, r := range applicable {
		target, err := fs.FullyExpandPath(r.Target)
		if err != nil {
			return out, &ErrPathExpansion{Cause: err}
		}
		target, err = fs.MaybeResolveSymlink(target)
		if err != nil {
			return out, &ErrPathExpansion{Cause: err}
		}

		rewrite, err := fs.FullyExpandPath(r.Rewrite)
		if err != nil {
			return out, &ErrPathExpansion{Cause: err}
		}

		if r.Mode == rule.Directory {
			createdTarget, err := fs.EnsureDirectory(target)
			if err != nil {
				return out, &ErrFsSetup{Path: target, Cause: err}
			}
			if createdTarget {
				out.createdDirectories = append(out.createdDirectories, target)
			}

			createdRewrite, err := fs.EnsureDirectory(rewrite)
			if err != nil {
				return out, &ErrFsSetup{Path: rewrite, Cause: err}
			}
			if createdRewrite {
				out.createdDirectories = append(out.createdDirectories, rewrite)
			}
		} else {
			createdTarget, err := fs.EnsureFile(target)
			if err != nil {
				return out, &ErrFsSetup{Path: target, Cause: err}
			}
			if createdTarget {
				out.createdFiles = append(out.createdFiles, target)
			}

			createdRewrite, err := fs.EnsureFile(rewrite)
			if err != nil {
				return out, &ErrFsSetup{Path: rewrite, Cause: err}
			}
			if createdRewrite {
				out.createdFiles = append(out.createdFiles, rewrite)
			}
		}

		expanded := r
		expanded.Target = target
		expanded.Rewrite = rewrite
		out.rules = append(out.rules, expanded)
	}

	return out, nil
}
