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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5400"

	// DEFAULT_DATA_DIR receives local fallback files when neither the
	// database nor the cache is reachable.
	DEFAULT_DATA_DIR = "./data"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL    bool   `json:"ssl" envconfig:"PROOFDESK_SERVER_SSL"`
	Domain string `json:"domain" envconfig:"PROOFDESK_SERVER_SSL_DOMAIN"`
	Email  string `json:"ssl_email" envconfig:"PROOFDESK_SERVER_SSL_EMAIL"`
	Port   string `json:"port" envconfig:"PROOFDESK_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"PROOFDESK_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"PROOFDESK_REDIS_DNS"`
}

type Configuration struct {
	ProjectName string           `json:"project_name" envconfig:"PROOFDESK_PROJECT_NAME"`
	DataDir     string           `json:"data_dir" envconfig:"PROOFDESK_DATA_DIR"`
	Server      ServerConfig     `json:"server"`
	DataSource  DataSourceConfig `json:"data_source"`
	Redis       RedisConfig      `json:"redis"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("proofdesk", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called proofdesk.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Proofdesk Server"
	}

	// Both stores are optional. Without a database, result rows go to the
	// local fallback directory; without redis, session snapshots do too.
	if cnf.DataSource.Dns == "" {
		log.Println("Warning: Data source DNS is empty. Result rows will use the local fallback store.")
	}
	if cnf.Redis.Dns == "" {
		log.Println("Warning: Redis DNS is empty. Session snapshots will use the local fallback store.")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.DataDir = strings.TrimSpace(cnf.DataDir)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.DataDir == "" {
		cnf.DataDir = DEFAULT_DATA_DIR
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	mockConfig.applyTestDefaults()
	ConfigStore.Store(mockConfig)
}

func (cnf *Configuration) applyTestDefaults() {
	if cnf.DataDir == "" {
		cnf.DataDir = os.TempDir()
	}
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
	}
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
