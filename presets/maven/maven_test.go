package maven_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	taskrun "github.com/goliatone/go-taskrun"
	"github.com/goliatone/go-taskrun/presets/maven"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	out    *bytes.Buffer
	hits   *atomic.Int32
	target string
	d      *taskrun.Dispatcher
	preset *maven.Preset
}

func newFixture(t *testing.T, opts ...maven.Option) *fixture {
	t.Helper()

	hits := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/v12.9.1/Saxon-HE-fork-12.9.1.jar" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("jar"))
	}))
	t.Cleanup(server.Close)

	target := filepath.Join(t.TempDir(), "target")
	out := &bytes.Buffer{}

	base := []maven.Option{
		maven.WithReleaseBaseURL(server.URL + "/"),
		maven.WithTargetDir(target),
		maven.WithMaven("echo mvn"),
		maven.WithBinary("echo saxx"),
	}
	preset := maven.New(append(base, opts...)...)

	shell := taskrun.NewShell(
		taskrun.WithShellOutput(out),
		taskrun.WithShellStdio(nil, out, out),
		taskrun.WithShellHTTPClient(server.Client()),
	)
	d := taskrun.NewDispatcher(
		taskrun.WithProgramName("tasks"),
		taskrun.WithOutput(out),
		taskrun.WithShell(shell),
	)
	require.NoError(t, preset.Register(d))

	return &fixture{out: out, hits: hits, target: target, d: d, preset: preset}
}

func TestPresetTaskOrder(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.d.Run(context.Background(), nil))
	assert.Equal(t, "Command not found, try tasks deps | build | clean | test | run | <command> -h\n", f.out.String())
}

func TestPresetDocumentation(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.d.Run(context.Background(), []string{"run", "-h"}))
	assert.Equal(t, "Run saxx with arguments: run <args>\n", f.out.String())
	assert.Zero(t, f.hits.Load())
}

func TestDepsDownloadsOnceAndInstalls(t *testing.T) {
	f := newFixture(t)
	jar := filepath.Join(f.target, "Saxon-HE-fork-12.9.1.jar")
	install := "echo mvn install:install-file -Dfile=" + jar +
		" -DgroupId=net.sf.saxon -DartifactId=Saxon-HE-fork -Dversion=12.9.1 -Dpackaging=jar -q"

	require.NoError(t, f.d.Run(context.Background(), []string{"deps"}))
	assert.Equal(t,
		"Downloading "+f.preset.JarURL("12.9.1")+"\n"+
			"> "+install+"\n"+
			install[len("echo "):]+"\n"+
			"Saxon-HE fork installed to local Maven repo\n",
		f.out.String())

	content, err := os.ReadFile(jar)
	require.NoError(t, err)
	assert.Equal(t, "jar", string(content))

	f.out.Reset()
	require.NoError(t, f.d.Run(context.Background(), []string{"deps"}))
	assert.Equal(t,
		"Already downloaded: "+jar+"\n"+
			"> "+install+"\n"+
			install[len("echo "):]+"\n"+
			"Saxon-HE fork installed to local Maven repo\n",
		f.out.String())

	assert.Equal(t, int32(1), f.hits.Load())
}

func TestDepsFailsOnMissingRelease(t *testing.T) {
	f := newFixture(t, maven.WithVersion("0.0.0"))

	err := f.d.Run(context.Background(), []string{"deps"})
	require.Error(t, err)
	assert.NotContains(t, f.out.String(), "> ")
	assert.NotContains(t, f.out.String(), "installed")
}

func TestBuildRunsDepsFirst(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.d.Run(context.Background(), []string{"build"}))

	output := f.out.String()
	installAt := bytes.Index([]byte(output), []byte("install:install-file"))
	packageAt := bytes.Index([]byte(output), []byte("> echo mvn package -DskipTests -q"))
	require.GreaterOrEqual(t, installAt, 0)
	require.GreaterOrEqual(t, packageAt, 0)
	assert.Less(t, installAt, packageAt)
}

func TestRunForwardsArguments(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.d.Run(context.Background(), []string{"run", "-s:in.xml", "-xsl:style.xsl"}))
	assert.Contains(t, f.out.String(), "> echo saxx -s:in.xml -xsl:style.xsl\nsaxx -s:in.xml -xsl:style.xsl\n")
	assert.Contains(t, f.out.String(), "> echo mvn package -DskipTests -q\n")

	f.out.Reset()
	require.NoError(t, f.d.Invoke(context.Background(), "run"))
	assert.Contains(t, f.out.String(), "> echo saxx\n")
}

func TestRunPassesLongHelpToBinary(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.d.Run(context.Background(), []string{"run", "--help"}))
	assert.Contains(t, f.out.String(), "> echo saxx --help\nsaxx --help\n")
}

func TestCleanAndTest(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.d.Run(context.Background(), []string{"clean"}))
	assert.Equal(t, "> echo mvn clean -q\nmvn clean -q\n", f.out.String())

	f.out.Reset()
	require.NoError(t, f.d.Run(context.Background(), []string{"test"}))
	assert.Equal(t, "> echo mvn test\nmvn test\n", f.out.String())
	assert.Zero(t, f.hits.Load())
}

func TestFailingMavenStopsBuild(t *testing.T) {
	f := newFixture(t, maven.WithMaven("exit 7;"))

	err := f.d.Run(context.Background(), []string{"build"})
	require.Error(t, err)
	assert.Equal(t, 7, taskrun.ExitCode(err))
	assert.NotContains(t, f.out.String(), "package -DskipTests")
	assert.NotContains(t, f.out.String(), "installed")
}

func TestVersionFromFile(t *testing.T) {
	dir := t.TempDir()
	pom := filepath.Join(dir, "pom.xml")

	f := newFixture(t, maven.WithVersionFile(pom, ""))

	err := f.d.Run(context.Background(), []string{"deps"})
	require.Error(t, err)
	assert.Empty(t, f.out.String(), "nothing runs before the version is known")

	require.NoError(t, os.WriteFile(pom, []byte("<saxon.version>12.9.1</saxon.version>"), 0o644))
	version, err := f.preset.Version()
	require.NoError(t, err)
	assert.Equal(t, "12.9.1", version)

	require.NoError(t, f.d.Run(context.Background(), []string{"deps"}))
	assert.Contains(t, f.out.String(), "-Dversion=12.9.1")
}

func TestJarLocations(t *testing.T) {
	p := maven.New()

	assert.Equal(t, "Saxon-HE-fork-12.9.1.jar", maven.JarName("12.9.1"))
	assert.Equal(t,
		"https://github.com/vivainio/Saxon-HE-fork/releases/download/v12.9.1/Saxon-HE-fork-12.9.1.jar",
		p.JarURL(maven.DefaultSaxonVersion))
	assert.Equal(t, filepath.Join("target", "Saxon-HE-fork-12.9.1.jar"), p.JarPath("12.9.1"))

	version, err := p.Version()
	require.NoError(t, err)
	assert.Equal(t, maven.DefaultSaxonVersion, version)
}
