package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the resolved command-line/environment configuration for one
// server run.
type Config struct {
	tcpPort       int
	udpPort       int
	name          string
	accountsFile  string
	questionsFile string
	verbose       bool
}

func (c *Config) validate() error {
	if c.tcpPort < 1 || c.tcpPort > 65535 {
		return fmt.Errorf("invalid --tcp port (must be between 1-65535 inclusive): %d", c.tcpPort)
	}
	if c.udpPort < 1 || c.udpPort > 65535 {
		return fmt.Errorf("invalid --udp port (must be between 1-65535 inclusive): %d", c.udpPort)
	}
	if c.tcpPort == c.udpPort {
		return fmt.Errorf("--tcp and --udp cannot share the same port (%d)", c.tcpPort)
	}
	return nil
}

func defaultServerName() string {
	return fmt.Sprintf("QuizNet #%04d", rand.Intn(10000))
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIZNET")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "quiznet",
		Short:         "A multiplayer quiz game server with solo and battle modes.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("name") && cfg.name == "" {
				cfg.name = defaultServerName()
			}
			return Serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.IntVar(&cfg.tcpPort, "tcp", defaultTCPPort, "TCP port for game connections (env: QUIZNET_TCP)")
	fs.IntVar(&cfg.udpPort, "udp", defaultUDPPort, "UDP port for LAN discovery (env: QUIZNET_UDP)")
	fs.StringVar(&cfg.name, "name", "", "server name advertised over discovery (default: QuizNet #NNNN) (env: QUIZNET_NAME)")
	fs.StringVar(&cfg.accountsFile, "accounts-file", "data/accounts.dat", "path to the flat-file account store (env: QUIZNET_ACCOUNTS_FILE)")
	fs.StringVar(&cfg.questionsFile, "questions-file", "data/questions.dat", "path to the question catalog (env: QUIZNET_QUESTIONS_FILE)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "enable debug-level logging (env: QUIZNET_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quiznet v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
