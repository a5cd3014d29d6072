package maven

type Option func(*Preset)

// WithVersion sets the Saxon-HE fork version
func WithVersion(version string) Option {
	return func(p *Preset) {
		if version != "" {
			p.version = version
		}
	}
}

// WithVersionFile reads the version from file instead of the configured
// value. An empty pattern keeps DefaultVersionPattern.
func WithVersionFile(file, pattern string) Option {
	return func(p *Preset) {
		if file != "" {
			p.versionFile = file
		}
		if pattern != "" {
			p.versionPattern = pattern
		}
	}
}

// WithReleaseBaseURL sets where release jars are downloaded from
func WithReleaseBaseURL(url string) Option {
	return func(p *Preset) {
		if url != "" {
			p.releaseBaseURL = url
		}
	}
}

// WithTargetDir sets the directory the jar is downloaded to
func WithTargetDir(dir string) Option {
	return func(p *Preset) {
		if dir != "" {
			p.targetDir = dir
		}
	}
}

// WithMaven sets the Maven executable, e.g. "./mvnw"
func WithMaven(maven string) Option {
	return func(p *Preset) {
		if maven != "" {
			p.maven = maven
		}
	}
}

// WithBinary sets the program started by the run task
func WithBinary(binary string) Option {
	return func(p *Preset) {
		if binary != "" {
			p.binary = binary
		}
	}
}

func WithGroup(group string) Option {
	return func(p *Preset) {
		if group != "" {
			p.group = group
		}
	}
}
