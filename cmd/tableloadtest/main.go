// Command tableloadtest bulk-registers studies from a YAML fixture against
// a running table node, then optionally drives reserve/register cycles as a
// synthetic worker. It exists for local load-testing; it is not a worker
// node.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/atsuhiron/lite-dist2-go/internal/study"
	"github.com/atsuhiron/lite-dist2-go/internal/trial"
	"github.com/atsuhiron/lite-dist2-go/pkg/codec"
	"github.com/atsuhiron/lite-dist2-go/pkg/tableclient"
)

// fixture is the YAML document shape: a list of study registries in their
// JSON wire form, plus the worker parameters for the drive phase.
type fixture struct {
	Studies []yaml.Node `yaml:"studies"`
	Worker  struct {
		Capability []string `yaml:"capability"`
		MaxSize    int64    `yaml:"max_size"`
		WaitMillis int      `yaml:"wait_millis"`
	} `yaml:"worker"`
}

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "Table node base URL")
		fixturePath = flag.String("fixture", "", "Path to the YAML study fixture")
		drive       = flag.Bool("drive", false, "After registering, run a synthetic worker loop until no work remains")
	)
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "missing -fixture")
		os.Exit(1)
	}
	data, err := os.ReadFile(*fixturePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		fmt.Fprintf(os.Stderr, "cannot parse fixture: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	client := tableclient.New(*baseURL)
	if err := client.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "table node unreachable: %v\n", err)
		os.Exit(1)
	}

	for i, node := range fx.Studies {
		reg, err := registryFromYAML(node)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fixture study %d: %v\n", i, err)
			os.Exit(1)
		}
		studyID, err := client.RegisterStudy(ctx, reg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "register study %d: %v\n", i, err)
			os.Exit(1)
		}
		fmt.Printf("registered %s (study_id=%s)\n", reg.Name, studyID)
	}

	if !*drive {
		return
	}
	maxSize := fx.Worker.MaxSize
	if maxSize == 0 {
		maxSize = 16
	}
	wait := time.Duration(fx.Worker.WaitMillis) * time.Millisecond
	if wait == 0 {
		wait = time.Second
	}
	idle := 0
	for idle < 3 {
		tr, err := client.ReserveTrial(ctx, fx.Worker.Capability, maxSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reserve: %v\n", err)
			os.Exit(1)
		}
		if tr == nil {
			idle++
			time.Sleep(wait)
			continue
		}
		idle = 0
		tr.Result = evaluate(tr)
		if err := client.RegisterTrial(ctx, tr); err != nil {
			fmt.Fprintf(os.Stderr, "register trial %s: %v\n", tr.TrialID, err)
			os.Exit(1)
		}
		fmt.Printf("completed %s (%d points)\n", tr.TrialID, len(tr.Result))
	}
}

// registryFromYAML re-encodes one YAML study node as JSON and parses it
// through the registry's own wire decoder, so the fixture format is exactly
// the POST /study/register body.
func registryFromYAML(node yaml.Node) (study.Registry, error) {
	var generic map[string]any
	if err := node.Decode(&generic); err != nil {
		return study.Registry{}, err
	}
	data, err := json.Marshal(generic)
	if err != nil {
		return study.Registry{}, err
	}
	var reg study.Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return study.Registry{}, err
	}
	return reg, nil
}

// evaluate is the synthetic objective: it just echoes the first parameter
// of every grid point back as the result, typed to the study's declared
// result value type. Load testing needs traffic shape, not mathematics.
func evaluate(tr *trial.Trial) []trial.Mapping {
	var out []trial.Mapping
	for point := range gridOf(tr) {
		m := trial.Mapping{Params: point}
		res := point[0]
		if res.Type != tr.ResultValueType {
			res = zeroOf(tr.ResultValueType)
		}
		if tr.ResultShape == trial.ResultVector {
			m.Shape = trial.ResultVector
			m.Vector = codec.Vector{Type: res.Type, Items: []codec.Scalar{res}}
		} else {
			m.Shape = trial.ResultScalar
			m.Scalar = res
		}
		out = append(out, m)
	}
	return out
}

func zeroOf(t codec.Type) codec.Scalar {
	switch t {
	case codec.Bool:
		return codec.NewBool(false)
	case codec.Int:
		return codec.NewInt(0)
	default:
		return codec.NewFloat(0)
	}
}

func gridOf(tr *trial.Trial) func(yield func([]codec.Scalar) bool) {
	switch p := tr.ParameterSpace.(type) {
	case interface {
		Grid() func(yield func([]codec.Scalar) bool)
	}:
		return p.Grid()
	default:
		return func(yield func([]codec.Scalar) bool) {}
	}
}
