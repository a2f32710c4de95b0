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

package database

import (
	"database/sql"
	"log"
	"sync"

	_ "github.com/lib/pq"

	"github.com/proofdesk/proofdesk/config"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn *sql.DB
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and
// initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{Conn: con}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	err = createResultRowTable(db)
	if err != nil {
		return nil, err
	}
	err = createProofRecordTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// createResultRowTable creates a PostgreSQL table for denormalized
// reconciliation result rows.
func createResultRowTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reconciliation_results (
			id SERIAL PRIMARY KEY,
			row_id TEXT NOT NULL UNIQUE,
			sheet_name TEXT,
			date TEXT,
			narration TEXT,
			original_amount TEXT,
			signed_amount DOUBLE PRECISION,
			amount_abs DOUBLE PRECISION,
			amount_type TEXT,
			age TEXT,
			prefix_key TEXT,
			suffix_key TEXT,
			side TEXT,
			status TEXT,
			branch_code TEXT,
			branch_name TEXT,
			account_name TEXT,
			account_no TEXT,
			currency TEXT,
			maker TEXT,
			checker TEXT,
			rico TEXT,
			clco TEXT,
			proof_total DOUBLE PRECISION,
			system_balance DOUBLE PRECISION,
			user_id TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	log.Println(err)
	return err
}

// createProofRecordTable creates a PostgreSQL table for per-sheet proof
// records.
func createProofRecordTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS proof_records (
			id SERIAL PRIMARY KEY,
			sheet_name TEXT NOT NULL UNIQUE,
			matched_sum DOUBLE PRECISION,
			item_count INTEGER,
			status TEXT,
			submitted_by TEXT,
			submitted_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	log.Println(err)
	return err
}
