package yamlconfig

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/bayesgrid/internal/config"
	"github.com/vk/bayesgrid/internal/ctxlog"
	"github.com/vk/bayesgrid/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// Extensions are the file extensions handled by this loader.
var Extensions = []string{".yaml", ".yml"}

type fileRoot struct {
	Name      string            `yaml:"name"`
	Variables []variableDoc     `yaml:"variables"`
	Evidence  map[string]string `yaml:"evidence"`
	Sampling  *samplingDoc      `yaml:"sampling"`
}

type variableDoc struct {
	Name    string    `yaml:"name"`
	Values  []string  `yaml:"values"`
	Parents []string  `yaml:"parents"`
	Cpt     yaml.Node `yaml:"cpt"`
	line    int
}

type samplingDoc struct {
	Draws       *int    `yaml:"draws"`
	Workers     *int    `yaml:"workers"`
	SaveSamples *bool   `yaml:"save_samples"`
	Seed        *uint64 `yaml:"seed"`
}

// UnmarshalYAML records the line of the variable for error messages.
func (v *variableDoc) UnmarshalYAML(node *yaml.Node) error {
	type plain variableDoc
	if err := node.Decode((*plain)(v)); err != nil {
		return err
	}
	v.line = node.Line
	return nil
}

// Loader implements config.Loader for YAML files.
type Loader struct{}

// NewLoader creates a new YAML network loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every YAML file under paths and merges them in file order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, Extensions...)
	if err != nil {
		return nil, err
	}

	model := config.NewModel()
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read YAML file %s: %w", file, err)
		}
		m, err := parse(file, data)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(m); err != nil {
			return nil, fmt.Errorf("in %s: %w", file, err)
		}
	}

	logger.Debug("YAML loading complete.", "variables", len(model.Variables), "evidence", len(model.Evidence))
	return model, nil
}

func parse(file string, data []byte) (*config.Model, error) {
	var root fileRoot
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", file, err)
	}

	m := config.NewModel()
	m.Name = root.Name
	for _, doc := range root.Variables {
		source := fmt.Sprintf("%s:%d", file, doc.line)
		if doc.Name == "" {
			return nil, fmt.Errorf("%s: variable without a name", source)
		}
		if len(doc.Values) == 0 {
			return nil, fmt.Errorf("%s: variable %q: missing required field \"values\"", source, doc.Name)
		}
		rows, err := decodeCpt(&doc.Cpt)
		if err != nil {
			return nil, fmt.Errorf("%s: variable %q: cpt: %w", source, doc.Name, err)
		}
		m.Variables = append(m.Variables, &config.Variable{
			Name:    doc.Name,
			Values:  doc.Values,
			Parents: doc.Parents,
			Cpt:     rows,
			Source:  source,
		})
	}
	for name, value := range root.Evidence {
		m.Evidence[name] = value
	}
	if root.Sampling != nil {
		m.Sampling = config.Sampling{
			Draws:       root.Sampling.Draws,
			Workers:     root.Sampling.Workers,
			SaveSamples: root.Sampling.SaveSamples,
			Seed:        root.Sampling.Seed,
		}
	}
	return m, nil
}

// decodeCpt accepts a flat sequence of numbers (one row) or a sequence of
// such sequences. An absent node yields no rows.
func decodeCpt(node *yaml.Node) ([][]float64, error) {
	if node.Kind == 0 || node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: must be a list", node.Line)
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var rows [][]float64
		if err := node.Decode(&rows); err != nil {
			return nil, err
		}
		return rows, nil
	}
	var row []float64
	if err := node.Decode(&row); err != nil {
		return nil, err
	}
	return [][]float64{row}, nil
}
