package app

import (
	"errors"
	"flag"
	"os"
)

type Config struct {
	DBPath     string
	MissionID  string
	OutputFile string
	List       bool
	Verbose    bool
}

func NewConfig() *Config {
	return &Config{}
}

func NewConfigFromCLI() (*Config, error) {
	return NewConfigFromArgs(os.Args[0], os.Args[1:])
}

// NewConfigFromArgs parses args. Either -list or both -m and -o are required.
func NewConfigFromArgs(name string, args []string) (*Config, error) {
	c := NewConfig()

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.StringVar(&c.DBPath, "db", "", "Path to the database file")
	flags.StringVar(&c.MissionID, "m", "", "Mission ID")
	flags.StringVar(&c.OutputFile, "o", "", "Path to the output report file")
	flags.BoolVar(&c.List, "list", false, "List stored missions and exit")
	flags.BoolVar(&c.Verbose, "verbose", false, "Log every site")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	var err error
	switch {
	case c.DBPath == "":
		err = errors.New("db path is required")
	case c.List:
	case c.MissionID == "":
		err = errors.New("mission id is required")
	case c.OutputFile == "":
		err = errors.New("output file is required")
	}

	if err != nil {
		flags.Usage()
		return nil, err
	}

	return c, nil
}
