// Package maven provides the tasks of a Maven project that depends on the
// Saxon-HE fork jar: deps, build, clean, test and run.
package maven

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	taskrun "github.com/goliatone/go-taskrun"
)

const (
	DefaultSaxonVersion   = "12.9.1"
	DefaultReleaseBaseURL = "https://github.com/vivainio/Saxon-HE-fork/releases/download"
	DefaultTargetDir      = "target"
	DefaultMaven          = "mvn"
	DefaultBinary         = "./saxx"
	// DefaultVersionPattern matches <saxon.version>X</saxon.version> in a pom.xml.
	DefaultVersionPattern = `<saxon\.version>\s*([^<\s]+)\s*</saxon\.version>`
)

// Preset holds the command templates for the project tasks.
type Preset struct {
	version        string
	versionFile    string
	versionPattern string
	releaseBaseURL string
	targetDir      string
	maven          string
	binary         string
	group          string
}

func New(opts ...Option) *Preset {
	p := &Preset{
		version:        DefaultSaxonVersion,
		versionPattern: DefaultVersionPattern,
		releaseBaseURL: DefaultReleaseBaseURL,
		targetDir:      DefaultTargetDir,
		maven:          DefaultMaven,
		binary:         DefaultBinary,
		group:          "maven",
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// JarName is the file name of the Saxon-HE fork jar for version.
func JarName(version string) string {
	return fmt.Sprintf("Saxon-HE-fork-%s.jar", version)
}

// JarURL is the release download URL of the jar for version.
func (p *Preset) JarURL(version string) string {
	return fmt.Sprintf("%s/v%s/%s", strings.TrimRight(p.releaseBaseURL, "/"), version, JarName(version))
}

// JarPath is the local path the jar is downloaded to.
func (p *Preset) JarPath(version string) string {
	return filepath.Join(p.targetDir, JarName(version))
}

// Version returns the configured Saxon version, read from the version file
// when one is set.
func (p *Preset) Version() (string, error) {
	if p.versionFile == "" {
		return p.version, nil
	}
	return taskrun.ReadVersion(p.versionFile, p.versionPattern)
}

// Tasks returns deps, build, clean, test and run, in that order.
func (p *Preset) Tasks() []taskrun.Task {
	return []taskrun.Task{
		taskrun.NewTask("deps", p.deps,
			taskrun.WithDescription("Download Saxon-HE fork from GitHub releases and install to local Maven repo"),
			taskrun.WithGroup(p.group),
		),
		taskrun.NewTask("build", p.command("package -DskipTests -q"),
			taskrun.WithDescription("Build the project with Maven"),
			taskrun.WithNeeds("deps"),
			taskrun.WithGroup(p.group),
		),
		taskrun.NewTask("clean", p.command("clean -q"),
			taskrun.WithDescription("Clean build artifacts"),
			taskrun.WithGroup(p.group),
		),
		taskrun.NewTask("test", p.command("test"),
			taskrun.WithDescription("Run tests"),
			taskrun.WithGroup(p.group),
		),
		taskrun.NewTask("run", p.run,
			taskrun.WithDescription("Run saxx with arguments: run <args>"),
			taskrun.WithNeeds("build"),
			taskrun.WithGroup(p.group),
		),
	}
}

// Register adds the preset tasks to d.
func (p *Preset) Register(d *taskrun.Dispatcher) error {
	return d.Register(p.Tasks()...)
}

func (p *Preset) deps(ctx context.Context, inv *taskrun.Invocation) error {
	version, err := p.Version()
	if err != nil {
		return err
	}

	jar := p.JarPath(version)
	if _, err := inv.Shell.FetchOnce(ctx, p.JarURL(version), jar); err != nil {
		return err
	}

	install := fmt.Sprintf("%s install:install-file -Dfile=%s "+
		"-DgroupId=net.sf.saxon -DartifactId=Saxon-HE-fork "+
		"-Dversion=%s -Dpackaging=jar -q", p.maven, jar, version)
	if err := inv.Shell.Run(ctx, install); err != nil {
		return err
	}

	inv.Shell.Emit("Saxon-HE fork installed to local Maven repo")
	return nil
}

func (p *Preset) command(args string) taskrun.TaskFunc {
	return func(ctx context.Context, inv *taskrun.Invocation) error {
		return inv.Shell.Run(ctx, p.maven+" "+args)
	}
}

func (p *Preset) run(ctx context.Context, inv *taskrun.Invocation) error {
	line := strings.TrimSpace(p.binary + " " + strings.Join(inv.Args, " "))
	return inv.Shell.Run(ctx, line)
}
