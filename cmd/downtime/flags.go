package main

import (
	"flag"
	"os"
)

type AppFlags struct {
	GlobalConfigFile string
	WebsitesFile     string
	Port             int
}

// ParseFlags reads command line flags. Short aliases fill in only when the long form is unset.
func ParseFlags(args []string) (AppFlags, error) {
	fs := flag.NewFlagSet("downtime", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	globalConfigFile := fs.String("config", "", "Path to the global YAML/JSON configuration file. If not set, searches default locations.")
	globalConfigFileAlias := fs.String("c", "", "Alias for -config")

	websitesFile := fs.String("data", "", "Path to the JSON file holding monitored websites (overrides config file if set)")
	websitesFileAlias := fs.String("d", "", "Alias for -data")

	port := fs.Int("port", 0, "Port for the REST API (overrides config file and PORT env if set)")
	portAlias := fs.Int("p", 0, "Alias for -port")

	if err := fs.Parse(args); err != nil {
		return AppFlags{}, err
	}

	flags := AppFlags{
		GlobalConfigFile: firstNonEmpty(*globalConfigFile, *globalConfigFileAlias),
		WebsitesFile:     firstNonEmpty(*websitesFile, *websitesFileAlias),
		Port:             *port,
	}
	if flags.Port == 0 {
		flags.Port = *portAlias
	}
	return flags, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
