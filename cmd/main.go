/*
Copyright 2024 Proofdesk Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/proofdesk/proofdesk"
	"github.com/proofdesk/proofdesk/config"
	"github.com/proofdesk/proofdesk/database"
)

// Proofdesk represents the CLI application, encapsulating the root Cobra
// command.
type Proofdesk struct {
	cmd *cobra.Command
}

// proofdeskInstance holds the engine instance and its configuration so
// subcommands share one initialized runtime.
type proofdeskInstance struct {
	engine *proofdesk.Proofdesk
	cnf    *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the
// error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and initializes the engine before running
// any command.
func preRun(app *proofdeskInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("proofdesk.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		engine, err := setupProofdesk(cnf)
		if err != nil {
			log.Fatal(err)
		}

		app.engine = engine
		app.cnf = cnf

		return nil
	}
}

// setupProofdesk creates a new engine wired to the configured datasource.
// Without a data source DNS the engine runs in-memory with the local
// fallback store for audit rows.
func setupProofdesk(cfg *config.Configuration) (*proofdesk.Proofdesk, error) {
	var db database.IDataSource
	if cfg.DataSource.Dns != "" {
		source, err := database.NewDataSource(cfg)
		if err != nil {
			return nil, fmt.Errorf("error getting datasource: %v", err)
		}
		db = source
	}

	engine, err := proofdesk.NewProofdesk(db)
	if err != nil {
		return nil, fmt.Errorf("error creating proofdesk: %v", err)
	}
	return engine, nil
}

// NewCLI creates the command-line interface for the Proofdesk application.
func NewCLI() *Proofdesk {
	var configFile string
	p := &proofdeskInstance{}

	var rootCmd = &cobra.Command{
		Use:   "proofdesk",
		Short: "Back-office reconciliation engine",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./proofdesk.json", "Configuration file for proofdesk")

	rootCmd.PersistentPreRunE = preRun(p)

	rootCmd.AddCommand(serverCommands(p))
	rootCmd.AddCommand(configCommands())

	return &Proofdesk{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during
// execution.
func (w Proofdesk) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
