package blog

// UtterancesScript is the comment widget loader.
const UtterancesScript = "https://utteranc.es/client.js"

// Widget defaults for an unset label or theme.
const (
	DefaultCommentsLabel = "blog-comment"
	DefaultCommentsTheme = "dark-blue"
)

// CommentsConfig selects the discussion repository for the comment widget.
type CommentsConfig struct {
	Enabled   bool
	Repo      string
	IssueTerm string
	Label     string
	Theme     string
}

// CommentsEmbed describes the widget script a page should carry. It is a
// plain value: the view layer turns it into markup.
type CommentsEmbed struct {
	ScriptSrc string
	Repo      string
	IssueTerm string
	Label     string
	Theme     string
	// PagePath keys the discussion thread.
	PagePath string
}

// NewCommentsEmbed returns the embed for the page at pagePath, or nil when
// comments are disabled or no repository is configured.
func NewCommentsEmbed(cfg CommentsConfig, pagePath string) *CommentsEmbed {
	if !cfg.Enabled || cfg.Repo == "" {
		return nil
	}
	e := &CommentsEmbed{
		ScriptSrc: UtterancesScript,
		Repo:      cfg.Repo,
		IssueTerm: cfg.IssueTerm,
		Label:     cfg.Label,
		Theme:     cfg.Theme,
		PagePath:  pagePath,
	}
	if e.IssueTerm == "" {
		e.IssueTerm = "pathname"
	}
	if e.Label == "" {
		e.Label = DefaultCommentsLabel
	}
	if e.Theme == "" {
		e.Theme = DefaultCommentsTheme
	}
	return e
}

// Attributes lists the script attributes in a stable order.
func (e CommentsEmbed) Attributes() [][2]string {
	attrs := [][2]string{
		{"src", e.ScriptSrc},
		{"repo", e.Repo},
		{"issue-term", e.IssueTerm},
	}
	if e.Label != "" {
		attrs = append(attrs, [2]string{"label", e.Label})
	}
	attrs = append(attrs,
		[2]string{"theme", e.Theme},
		[2]string{"crossorigin", "anonymous"},
	)
	return attrs
}
