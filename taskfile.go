package taskrun

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"text/template"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goliatone/go-errors"
	"gopkg.in/yaml.v2"
)

// DefaultTaskFile is the taskfile loaded by the taskrun binary.
const DefaultTaskFile = "tasks.yml"

// TaskFile is the YAML description of a set of tasks. Tasks are kept in file
// order.
type TaskFile struct {
	Vars  map[string]string `yaml:"vars"`
	Tasks []TaskSpec        `yaml:"tasks"`
}

type TaskSpec struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Needs       []string     `yaml:"needs"`
	VersionFrom *VersionSpec `yaml:"version_from"`
	Steps       []Step       `yaml:"-"`
	RawSteps    []any        `yaml:"steps"`
}

// VersionSpec reads a version string out of a file before any step runs.
// The value is exposed as .Vars.<Var>, "version" by default.
type VersionSpec struct {
	File    string `yaml:"file"`
	Pattern string `yaml:"pattern"`
	Var     string `yaml:"var"`
}

// Step is a single action of a taskfile task. In YAML a plain string is a
// checked command.
type Step struct {
	Run          string        `mapstructure:"run"`
	Dir          string        `mapstructure:"dir"`
	IgnoreErrors bool          `mapstructure:"ignore_errors"`
	Background   bool          `mapstructure:"background"`
	Copy         *CopySpec     `mapstructure:"copy"`
	Download     *DownloadSpec `mapstructure:"download"`
	Emit         string        `mapstructure:"emit"`
}

type CopySpec struct {
	From []string `mapstructure:"from"`
	To   []string `mapstructure:"to"`
}

type DownloadSpec struct {
	URL  string `mapstructure:"url"`
	Dest string `mapstructure:"dest"`
}

// templateData is what step strings are rendered against.
type templateData struct {
	Vars map[string]string
	Args string
	Argv []string
	Task string
}

// ParseTaskFile decodes and validates taskfile content.
func ParseTaskFile(content []byte) (*TaskFile, error) {
	var file TaskFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse taskfile").
			WithTextCode("TASKFILE_INVALID")
	}

	var fieldErrors []errors.FieldError

	for i := range file.Tasks {
		spec := &file.Tasks[i]
		prefix := fmt.Sprintf("tasks[%d]", i)

		if spec.Name == "" {
			fieldErrors = append(fieldErrors, errors.FieldError{
				Field:   prefix + ".name",
				Message: "cannot be empty",
			})
		}

		if v := spec.VersionFrom; v != nil && (v.File == "" || v.Pattern == "") {
			fieldErrors = append(fieldErrors, errors.FieldError{
				Field:   prefix + ".version_from",
				Message: "file and pattern are required",
			})
		}

		for j, raw := range spec.RawSteps {
			field := fmt.Sprintf("%s.steps[%d]", prefix, j)
			step, err := decodeStep(raw)
			if err != nil {
				fieldErrors = append(fieldErrors, errors.FieldError{
					Field:   field,
					Message: err.Error(),
					Value:   raw,
				})
				continue
			}
			if msg := step.validate(); msg != "" {
				fieldErrors = append(fieldErrors, errors.FieldError{
					Field:   field,
					Message: msg,
					Value:   raw,
				})
				continue
			}
			spec.Steps = append(spec.Steps, step)
		}
	}

	if len(fieldErrors) > 0 {
		return nil, errors.NewValidation("taskfile validation failed", fieldErrors...)
	}

	return &file, nil
}

// LoadTaskFile reads and parses the taskfile at path.
func LoadTaskFile(path string) (*TaskFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taskfile: %w", err)
	}
	return ParseTaskFile(content)
}

// BuildTasks returns a Task for every spec, in file order.
func (f *TaskFile) BuildTasks(source string, logger Logger) []Task {
	tasks := make([]Task, 0, len(f.Tasks))
	for _, spec := range f.Tasks {
		tasks = append(tasks, NewTask(spec.Name, f.handler(spec),
			WithDescription(spec.Description),
			WithNeeds(spec.Needs...),
			WithSource(source),
			WithGroup("taskfile"),
			WithTaskLogger(logger),
		))
	}
	return tasks
}

func (f *TaskFile) handler(spec TaskSpec) TaskFunc {
	return func(ctx context.Context, inv *Invocation) error {
		vars := make(map[string]string, len(f.Vars)+1)
		for k, v := range f.Vars {
			vars[k] = v
		}

		if v := spec.VersionFrom; v != nil {
			version, err := ReadVersion(v.File, v.Pattern)
			if err != nil {
				return err
			}
			name := v.Var
			if name == "" {
				name = "version"
			}
			vars[name] = version
		}

		data := templateData{
			Vars: vars,
			Args: joinArgs(inv.Args),
			Argv: append([]string{}, inv.Args...),
			Task: spec.Name,
		}

		for i, step := range spec.Steps {
			rendered, err := step.render(data)
			if err != nil {
				return errors.Wrap(err, errors.CategoryBadInput, "failed to render step").
					WithTextCode("TASKFILE_TEMPLATE_ERROR").
					WithMetadata(map[string]any{
						"task_id": spec.Name,
						"step":    i,
					})
			}
			if err := rendered.execute(ctx, inv.Shell); err != nil {
				return err
			}
		}
		return nil
	}
}

func (s Step) validate() string {
	actions := 0
	for _, set := range []bool{s.Run != "", s.Copy != nil, s.Download != nil, s.Emit != ""} {
		if set {
			actions++
		}
	}

	switch {
	case actions == 0:
		return "step needs one of run, copy, download or emit"
	case actions > 1:
		return "step can only have one of run, copy, download or emit"
	case s.Copy != nil && (len(s.Copy.From) == 0 || len(s.Copy.To) == 0):
		return "copy needs from and to"
	case s.Download != nil && (s.Download.URL == "" || s.Download.Dest == ""):
		return "download needs url and dest"
	case (s.Background || s.IgnoreErrors || s.Dir != "") && s.Run == "":
		return "dir, background and ignore_errors only apply to run"
	}
	return ""
}

func (s Step) render(data templateData) (Step, error) {
	out := s
	var err error

	renderText := func(text string) string {
		if err != nil || text == "" {
			return text
		}
		var value string
		value, err = renderTemplate(text, data)
		return value
	}

	renderAll := func(values []string) []string {
		result := make([]string, len(values))
		for i, value := range values {
			result[i] = renderText(value)
		}
		return result
	}

	out.Run = renderText(s.Run)
	out.Dir = renderText(s.Dir)
	out.Emit = renderText(s.Emit)
	if s.Copy != nil {
		out.Copy = &CopySpec{From: renderAll(s.Copy.From), To: renderAll(s.Copy.To)}
	}
	if s.Download != nil {
		out.Download = &DownloadSpec{URL: renderText(s.Download.URL), Dest: renderText(s.Download.Dest)}
	}

	return out, err
}

func (s Step) execute(ctx context.Context, shell *Shell) error {
	switch {
	case s.Copy != nil:
		return shell.CopyFiles(s.Copy.From, s.Copy.To)
	case s.Download != nil:
		_, err := shell.FetchOnce(ctx, s.Download.URL, s.Download.Dest)
		return err
	case s.Run == "":
		shell.Emit(s.Emit)
		return nil
	case s.Background:
		return shell.Spawn(s.Run, s.Dir)
	case s.IgnoreErrors && s.Dir == "":
		shell.RunIgnore(ctx, s.Run)
		return nil
	case s.IgnoreErrors:
		_ = shell.RunInDir(ctx, s.Run, s.Dir)
		return nil
	case s.Dir != "":
		return shell.RunInDir(ctx, s.Run, s.Dir)
	default:
		return shell.Run(ctx, s.Run)
	}
}

func renderTemplate(text string, data templateData) (string, error) {
	tmpl, err := template.New("step").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func decodeStep(raw any) (Step, error) {
	if line, ok := raw.(string); ok {
		return Step{Run: line}, nil
	}

	var step Step
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
		Result:           &step,
	})
	if err != nil {
		return Step{}, fmt.Errorf("build decoder: %w", err)
	}
	if err := decoder.Decode(normalizeYAML(raw)); err != nil {
		return Step{}, err
	}
	return step, nil
}

// normalizeYAML turns the map[interface{}]interface{} values produced by
// yaml.v2 into map[string]any, recursively.
func normalizeYAML(value any) any {
	switch v := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[fmt.Sprint(key)] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return value
	}
}

// TaskFileCreator registers the tasks of a taskfile. A missing file yields
// no tasks.
type TaskFileCreator struct {
	path   string
	logger Logger
}

var _ TaskCreator = &TaskFileCreator{}

func NewTaskFileCreator(path string) *TaskFileCreator {
	return &TaskFileCreator{
		path:   path,
		logger: newStdLoggerProvider().GetLogger("taskrun:taskfile"),
	}
}

// SetLogger satisfies LoggerAware.
func (c *TaskFileCreator) SetLogger(logger Logger) {
	if logger != nil {
		c.logger = logger
	}
}

func (c *TaskFileCreator) CreateTasks(ctx context.Context) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !FileExists(c.path) {
		c.logger.Debug("taskfile not found, skipping", "path", c.path)
		return nil, nil
	}

	file, err := LoadTaskFile(c.path)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("taskfile loaded", "path", c.path, "tasks", len(file.Tasks))
	return file.BuildTasks(c.path, c.logger), nil
}
