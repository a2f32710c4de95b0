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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "proofdesk.json")

	cnf := Configuration{
		ProjectName: "Proofdesk Test",
		DataDir:     dir,
		Server:      ServerConfig{Port: "6001"},
		DataSource:  DataSourceConfig{Dns: "postgres://localhost:5432/proofdesk"},
		Redis:       RedisConfig{Dns: "localhost:6379"},
	}
	data, err := json.Marshal(cnf)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, data, 0o644))

	require.NoError(t, InitConfig(file))

	loaded, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "Proofdesk Test", loaded.ProjectName)
	assert.Equal(t, "6001", loaded.Server.Port)
	assert.Equal(t, "postgres://localhost:5432/proofdesk", loaded.DataSource.Dns)
}

func TestInitConfigMissingFileUsesEnv(t *testing.T) {
	t.Setenv("PROOFDESK_PROJECT_NAME", "Env Proofdesk")
	t.Setenv("PROOFDESK_SERVER_PORT", "7002")

	require.NoError(t, InitConfig(filepath.Join(t.TempDir(), "does-not-exist.json")))

	loaded, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "Env Proofdesk", loaded.ProjectName)
	assert.Equal(t, "7002", loaded.Server.Port)
}

func TestDefaultsApplied(t *testing.T) {
	cnf := &Configuration{}
	require.NoError(t, cnf.validateAndAddDefaults())

	assert.Equal(t, "Proofdesk Server", cnf.ProjectName)
	assert.Equal(t, DEFAULT_PORT, cnf.Server.Port)
	assert.Equal(t, DEFAULT_DATA_DIR, cnf.DataDir)
}

func TestMockConfig(t *testing.T) {
	MockConfig(&Configuration{ProjectName: "Mocked"})

	loaded, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "Mocked", loaded.ProjectName)
	assert.NotEmpty(t, loaded.DataDir)
}
