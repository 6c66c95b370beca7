package spacetraveling

// BuildOptions configures a static build.
type BuildOptions struct {
	OutputDir      string // Destination directory (default "dist")
	Clean          bool   // Remove OutputDir before writing
	LocalizeImages bool   // Download banners into banners/<uid>.jpg
	MaxImageWidth  int    // Banner width cap when localizing (default 1440)
	Concurrency    int    // Post pages rendered in parallel (default 4)
}

func (o *BuildOptions) setDefaults() {
	if o.OutputDir == "" {
		o.OutputDir = "dist"
	}
	if o.MaxImageWidth <= 0 {
		o.MaxImageWidth = defaultMaxImageWidth
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
}

// BuildReport summarizes a static build.
type BuildReport struct {
	Pages   int      // list pages, including the index
	Posts   int      // post pages written
	Banners int      // banners localized
	Skipped []string // post uids that could not be written as a path
}
