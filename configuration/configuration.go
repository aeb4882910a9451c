package configuration

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/huangminghuang/chainwait/emulator"
	"github.com/huangminghuang/chainwait/natsclient"
	"github.com/huangminghuang/chainwait/repository"
	"github.com/huangminghuang/chainwait/server"
	"github.com/huangminghuang/chainwait/submission"
	"github.com/huangminghuang/chainwait/telemetry"
	"github.com/huangminghuang/chainwait/tracker"
)

// Configuration is the main configuration of the application that corresponds
// to the *.yaml file that holds the configuration.
type Configuration struct {
	Server     server.Config       `yaml:"server"`
	Tracker    tracker.Config      `yaml:"tracker"`
	Nats       natsclient.Config   `yaml:"nats"`
	Database   repository.DBConfig `yaml:"database"`
	Emulator   emulator.Config     `yaml:"emulator"`
	Telemetry  telemetry.Config    `yaml:"telemetry"`
	Submission submission.Config   `yaml:"submission"`
}

// Read reads the configuration from the file and returns the Configuration
// with fields set according to the yaml setup.
func Read(path string) (Configuration, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, err
	}

	var main Configuration
	err = yaml.Unmarshal(buf, &main)
	if err != nil {
		return Configuration{}, fmt.Errorf("in file %q: %w", path, err)
	}

	return main, err
}
